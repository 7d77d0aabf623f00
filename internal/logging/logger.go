// Package logging builds the slog logger used across randopen.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string // "auto", "console" or "json"
	Writer io.Writer
}

// New constructs a slog logger using the provided options. The "auto"
// format writes console output to terminals and JSON everywhere else.
func New(opts Options) (*slog.Logger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := ParseLevel(opts.Level)
	addSource := level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" || format == "auto" {
		format = "json"
		if IsTerminal(w) {
			format = "console"
		}
	}

	switch format {
	case "json":
		return slog.New(newJSONHandler(w, level, addSource)), nil
	case "console":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:       level,
			AddSource:   addSource,
			ReplaceAttr: consoleAttr,
		})), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newJSONHandler(w io.Writer, level slog.Level, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				attr.Value = shortSource(attr.Value)
			}
			return attr
		},
	})
}

// consoleAttr drops timestamps; the console output is read by a person
// watching the run.
func consoleAttr(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if len(groups) == 0 {
			return slog.Attr{}
		}
	case slog.SourceKey:
		attr.Value = shortSource(attr.Value)
	}
	return attr
}

func shortSource(v slog.Value) slog.Value {
	if src, ok := v.Any().(*slog.Source); ok && src != nil {
		return slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
	}
	return v
}
