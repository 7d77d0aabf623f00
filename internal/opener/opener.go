// Package opener hands files to the operating system's default handler.
package opener

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/taigrr/randopen/internal/types"
)

// Opener opens a file with whatever application the OS associates with it.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// System launches the platform's default-open command.
type System struct {
	// Wait blocks until the launched handler exits instead of returning as
	// soon as it has started.
	Wait bool

	goos string
}

// New returns a System opener for the running platform.
func New(wait bool) *System {
	return &System{Wait: wait, goos: runtime.GOOS}
}

// Open launches the default handler for path.
func (s *System) Open(ctx context.Context, path string) error {
	name, args := Command(s.platform(), path, s.Wait)

	if s.Wait {
		cmd := exec.CommandContext(ctx, name, args...)
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%w: %s %s: %v", types.ErrOpenHandler, name, path, err)
		}
		return nil
	}

	// Not bound to ctx: the launcher must outlive the request that started it.
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s %s: %v", types.ErrOpenHandler, name, path, err)
	}
	// Reap the launcher in the background so it does not linger as a zombie.
	go cmd.Wait()
	return nil
}

func (s *System) platform() string {
	if s.goos == "" {
		return runtime.GOOS
	}
	return s.goos
}

// Command returns the program and arguments that open path on goos.
func Command(goos, path string, wait bool) (string, []string) {
	switch goos {
	case "windows":
		if wait {
			return "cmd", []string{"/C", "start", "/WAIT", "", path}
		}
		return "cmd", []string{"/C", "start", "", path}
	case "darwin":
		if wait {
			return "open", []string{"-W", path}
		}
		return "open", []string{path}
	default:
		if wait {
			return "gio", []string{"open", "--wait", path}
		}
		return "xdg-open", []string{path}
	}
}

// Func adapts a plain function to the Opener interface.
type Func func(ctx context.Context, path string) error

// Open calls f.
func (f Func) Open(ctx context.Context, path string) error {
	return f(ctx, path)
}
