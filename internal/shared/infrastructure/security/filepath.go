// Package security validates user supplied paths before they are opened.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// MaxFileSize caps files read through OpenFile.
const MaxFileSize = 10 << 20

var (
	ErrEmptyPath      = errors.New("file path cannot be empty")
	ErrForbiddenChar  = errors.New("file path contains a control character")
	ErrNotRegular     = errors.New("not a regular file")
	ErrFileTooLarge   = errors.New("file is too large")
	ErrWrongExtension = errors.New("unexpected file extension")
)

// ValidateFilePath cleans path, makes it absolute and resolves symlinks.
// The file must exist.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if strings.ContainsFunc(path, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
		return "", fmt.Errorf("%w: %q", ErrForbiddenChar, path)
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return resolved, nil
}

// OpenFile opens a regular file no larger than MaxFileSize. When exts is
// not empty the file extension must be one of them.
func OpenFile(path string, exts ...string) (*os.File, error) {
	resolved, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}
	if len(exts) > 0 && !slices.Contains(exts, strings.ToLower(filepath.Ext(resolved))) {
		return nil, fmt.Errorf("%w: %s (want %s)", ErrWrongExtension, path, strings.Join(exts, ", "))
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, path, info.Size())
	}

	return os.Open(resolved) // #nosec G304 -- path validated above
}
