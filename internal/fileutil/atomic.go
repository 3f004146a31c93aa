// Package fileutil holds file helpers shared by the batch writers.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// tempFileWrite is a function variable for writing to temp files (for testing).
var tempFileWrite = func(f *os.File, data []byte) (int, error) {
	return f.Write(data)
}

// tempFileClose is a function variable for closing temp files (for testing).
var tempFileClose = func(f io.Closer) error {
	return f.Close()
}

// WriteAtomic writes data to path through a temporary file in the same
// directory. On failure nothing is left at path.
func WriteAtomic(path string, data []byte) error {
	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFileWrite(tempFile, data); err != nil {
		tempFileClose(tempFile)
		os.Remove(tempPath)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	if err := tempFileClose(tempFile); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tempPath, 0o644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Rename to final path (atomic on POSIX)
	if err := osRename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
