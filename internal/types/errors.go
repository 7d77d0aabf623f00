package types

import "errors"

var (
	// ErrFilesystemUnavailable is returned when the root directory or the
	// cache file cannot be read or written.
	ErrFilesystemUnavailable = errors.New("filesystem unavailable")

	// ErrEmptyFileSet is returned when no eligible file is left to pick from.
	ErrEmptyFileSet = errors.New("no eligible files to choose from")

	// ErrOpenHandler is returned when the OS default handler could not be launched.
	ErrOpenHandler = errors.New("could not launch default handler")

	// ErrCacheLocked is returned when another process holds the cache lock.
	ErrCacheLocked = errors.New("cache file is locked by another process")
)
