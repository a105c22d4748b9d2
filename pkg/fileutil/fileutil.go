// Package fileutil provides file system helpers for locating ST source files.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath returns path unchanged when it exists. Otherwise it looks for a
// file whose name differs only in case in the same directory, since PLC
// projects exported on Windows often disagree with the case used on the
// command line ("Motor.ST" vs "motor.st").
func ResolvePath(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	found, err := FindFileCaseInsensitive(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return found, nil
}

// FindFileCaseInsensitive searches dir for a regular file named filename,
// ignoring case.
//
// Example:
//
//	path, err := FindFileCaseInsensitive("/path/to/project", "MOTOR.st")
//	// Will find "motor.st", "Motor.ST", etc.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), filename) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
}
