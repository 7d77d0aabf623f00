// Package filesystem enumerates the files under a root directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/taigrr/randopen/internal/pathfilter"
	"github.com/taigrr/randopen/internal/types"
)

// Service walks a directory tree and returns the eligible files in it.
type Service struct {
	root       string
	pathFilter *pathfilter.PathFilter
	logger     *slog.Logger
}

// New creates a new Service rooted at root.
func New(root string, pf *pathfilter.PathFilter, logger *slog.Logger) *Service {
	absPath, err := filepath.Abs(root)
	if err != nil {
		absPath = filepath.Clean(root)
	}
	if pf == nil {
		pf = pathfilter.New(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		root:       absPath,
		pathFilter: pf,
		logger:     logger,
	}
}

// Root returns the absolute root directory.
func (s *Service) Root() string {
	return s.root
}

// ListFiles recursively collects every eligible regular file under the root.
// Paths are absolute and appear in directory listing order.
func (s *Service) ListFiles(ctx context.Context) ([]string, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, describeError(s.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrFilesystemUnavailable, s.root)
	}

	// The root itself must be listable; failures further down are skipped.
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, describeError(s.root, err)
	}

	files := []string{}
	if err := s.walk(ctx, s.root, entries, &files); err != nil {
		return nil, err
	}

	s.logger.Debug("enumerated files", "root", s.root, "count", len(files))
	return files, nil
}

func (s *Service) walk(ctx context.Context, dirPath string, entries []os.DirEntry, files *[]string) error {
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		fullPath := filepath.Join(dirPath, entry.Name())
		relPath := s.relative(fullPath)

		// The cache stores one path per line.
		if strings.ContainsAny(entry.Name(), "\r\n") {
			s.logger.Warn("skipping entry with a line break in its name", "path", fullPath)
			continue
		}

		switch {
		case entry.IsDir():
			if !s.pathFilter.IsAllowed(relPath + "/") {
				continue
			}
			subEntries, err := os.ReadDir(fullPath)
			if err != nil {
				s.logger.Warn("skipping unreadable directory", "path", fullPath, "error", err)
				continue
			}
			if err := s.walk(ctx, fullPath, subEntries, files); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if s.pathFilter.IsEligible(fullPath, relPath) {
				*files = append(*files, fullPath)
			}
		}
	}
	return nil
}

// relative returns path relative to the root with forward slashes.
func (s *Service) relative(path string) string {
	relPath, err := filepath.Rel(s.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return strings.ReplaceAll(filepath.ToSlash(relPath), "\\", "/")
}

func describeError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: directory not found: %s", types.ErrFilesystemUnavailable, path)
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: permission denied: %s", types.ErrFilesystemUnavailable, path)
	}
	return fmt.Errorf("%w: failed to list directory: %s - %v", types.ErrFilesystemUnavailable, path, err)
}
