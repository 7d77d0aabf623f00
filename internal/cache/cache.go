// Package cache persists the shuffled file list as newline-delimited text.
package cache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/flock"
	"github.com/taigrr/randopen/internal/types"
)

// DefaultName is the cache file name used when none is configured.
const DefaultName = "Cache.txt"

const lockRetryDelay = 50 * time.Millisecond

// Store reads and writes a single cache file.
type Store struct {
	path string
	lock *flock.Flock
}

// New returns a Store for the cache file at path.
func New(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(LockPath(path)),
	}
}

// LockPath returns the lock file used to guard the cache at path.
func LockPath(path string) string {
	return path + ".lock"
}

// Path returns the cache file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the cache file is present.
func (s *Store) Exists() (bool, error) {
	info, err := os.Stat(s.path)
	if err == nil {
		if info.IsDir() {
			return false, fmt.Errorf("%w: cache path is a directory: %s", types.ErrFilesystemUnavailable, s.path)
		}
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat cache %s: %v", types.ErrFilesystemUnavailable, s.path, err)
}

// Read returns the cached paths in file order. Trailing whitespace is
// stripped from every line and blank lines are skipped.
func (s *Store) Read() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open cache %s: %v", types.ErrFilesystemUnavailable, s.path, err)
	}
	defer f.Close()

	paths := []string{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRightFunc(scanner.Text(), unicode.IsSpace)
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read cache %s: %v", types.ErrFilesystemUnavailable, s.path, err)
	}
	return paths, nil
}

// Write replaces the cache file with paths, one per line. The new content is
// written to a temporary file and renamed into place.
func (s *Store) Write(paths []string) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create cache %s: %v", types.ErrFilesystemUnavailable, s.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	for _, p := range paths {
		if strings.ContainsAny(p, "\r\n") {
			tmp.Close()
			return fmt.Errorf("cache entry contains a newline: %q", p)
		}
		w.WriteString(p)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write cache %s: %v", types.ErrFilesystemUnavailable, s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: write cache %s: %v", types.ErrFilesystemUnavailable, s.path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: write cache %s: %v", types.ErrFilesystemUnavailable, s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: replace cache %s: %v", types.ErrFilesystemUnavailable, s.path, err)
	}
	return nil
}

// Lock takes the single-writer lock, retrying until ctx is done.
func (s *Store) Lock(ctx context.Context) error {
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s", types.ErrCacheLocked, s.lock.Path())
		}
		return fmt.Errorf("%w: acquire lock %s: %v", types.ErrFilesystemUnavailable, s.lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrCacheLocked, s.lock.Path())
	}
	return nil
}

// TryLock takes the lock if it is free and reports whether it did.
func (s *Store) TryLock() (bool, error) {
	ok, err := s.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("%w: acquire lock %s: %v", types.ErrFilesystemUnavailable, s.lock.Path(), err)
	}
	return ok, nil
}

// Unlock releases the lock taken by Lock.
func (s *Store) Unlock() error {
	return s.lock.Unlock()
}
