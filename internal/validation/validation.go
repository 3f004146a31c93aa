// Package validation checks user-supplied paths and file sizes and turns
// window and control names into safe file names and C# identifiers.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// Limits on inputs (CWE-400).
const (
	// MaxFileSize is the maximum accepted source document size (64 MB).
	MaxFileSize = 64 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrFileTooLarge     = errors.New("file too large")
)

// ValidatePath checks a path for length limits and invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	// Check for null bytes
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// ValidateFilename checks that a filename is a single safe path element.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}

	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}

	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}

	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}

	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}

	// Reject filenames starting with hyphen (can be confused with command flags)
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}

	return nil
}

// CheckSize rejects source files larger than MaxFileSize.
func CheckSize(path string, size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, path, size, MaxFileSize)
	}
	return nil
}

// HasExt reports whether name ends with ext, ignoring case.
func HasExt(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Identifier turns s into a C# identifier: runs of non-word characters become
// one underscore and a leading digit gets an underscore prefix.
func Identifier(s string) string {
	if s == "" {
		return "unnamed"
	}
	name := nonWord.ReplaceAllString(s, "_")
	first := []rune(name)[0]
	if !unicode.IsLetter(first) && first != '_' {
		name = "_" + name
	}
	return name
}

// ClassName is Identifier with outer underscores removed. It falls back to
// GeneratedWindow.
func ClassName(s string) string {
	name := strings.Trim(nonWord.ReplaceAllString(s, "_"), "_")
	if name == "" {
		return "GeneratedWindow"
	}
	return name
}
