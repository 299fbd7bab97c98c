package errors

import (
	"errors"
	"fmt"
)

// Common errors that can be used across packages
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
)

// ValidationError represents an error that occurs during validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidArgument) match any validation failure.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// FileError represents an error that occurs during file operations
type FileError struct {
	Path    string
	Op      string
	Wrapped error
}

func (e *FileError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s operation failed on %s: %v", e.Op, e.Path, e.Wrapped)
	}
	return fmt.Sprintf("%s operation failed on %s", e.Op, e.Path)
}

func (e *FileError) Unwrap() error {
	return e.Wrapped
}

// NewFileError creates a new FileError
func NewFileError(path, op string, wrapped error) error {
	return &FileError{
		Path:    path,
		Op:      op,
		Wrapped: wrapped,
	}
}

// ArtifactError represents a failed operation on a single image reference
type ArtifactError struct {
	Op          string
	Source      string
	Destination string
	Wrapped     error
}

func (e *ArtifactError) Error() string {
	target := e.Source
	if e.Destination != "" {
		target = e.Source + " -> " + e.Destination
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("artifact %s operation failed for %s: %v", e.Op, target, e.Wrapped)
	}
	return fmt.Sprintf("artifact %s operation failed for %s", e.Op, target)
}

func (e *ArtifactError) Unwrap() error {
	return e.Wrapped
}

// NewArtifactError creates a new ArtifactError
func NewArtifactError(op, source, destination string, wrapped error) error {
	return &ArtifactError{
		Op:          op,
		Source:      source,
		Destination: destination,
		Wrapped:     wrapped,
	}
}

// Is reports whether target matches err.
// It enables errors.Is() to work with our custom error types.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
