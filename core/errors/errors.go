// Package errors provides standardized error types and helpers for the clarifier.
//
// Structural absences (missing section, sibling or code fence) and lookup misses
// are not errors in this codebase: they resolve to empty values. The types
// here cover the failures that do abort something, a single document or a
// whole batch.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrEncoding indicates a document could not be decoded or re-encoded
	ErrEncoding = errors.New("encoding error")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "directory", "table", "document")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "rename")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing error for configuration or table sources
type ParseError struct {
	Format  string // Format being parsed (e.g., "config", "lookup table")
	Path    string // File path, if applicable
	Line    int    // 1-based line, 0 when unknown
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	loc := ""
	switch {
	case e.Path != "" && e.Line > 0:
		loc = fmt.Sprintf(" at %s:%d", e.Path, e.Line)
	case e.Path != "":
		loc = " at " + e.Path
	}
	return fmt.Sprintf("failed to parse %s%s: %s", e.Format, loc, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Stage names the step of document processing that failed.
type Stage string

const (
	StageRead   Stage = "read"
	StageDecode Stage = "decode"
	StageEncode Stage = "encode"
	StageWrite  Stage = "write"
)

// DocumentError reports a failure that is fatal for one source document only.
// Batch processing continues with the next document.
type DocumentError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %s failed: %v", e.Path, e.Stage, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewDocument creates a DocumentError
func NewDocument(path string, stage Stage, err error) *DocumentError {
	return &DocumentError{
		Path:  path,
		Stage: stage,
		Err:   err,
	}
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
