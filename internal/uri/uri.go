// Package uri provides file URI generation.
package uri

import (
	"net/url"
	"strings"
)

// FileURI generates a file URI for an absolute path.
// Uses the three-slash form: file:///absolute/path/to/file
func FileURI(path string) string {
	// Windows paths use backslashes and a drive letter
	cleanPath := strings.ReplaceAll(path, "\\", "/")

	// URI encode the path, but keep slashes as slashes
	parts := strings.Split(cleanPath, "/")
	for i, part := range parts {
		if i == 0 && isDriveLetter(part) {
			continue
		}
		parts[i] = url.PathEscape(part)
	}
	encodedPath := strings.Join(parts, "/")

	// Remove leading slash since we add file:/// prefix
	encodedPath = strings.TrimPrefix(encodedPath, "/")

	return "file:///" + encodedPath
}

func isDriveLetter(s string) bool {
	if len(s) != 2 || s[1] != ':' {
		return false
	}
	c := s[0] | 0x20
	return c >= 'a' && c <= 'z'
}
