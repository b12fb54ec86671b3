package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
)

// Specific errors.
var (
	ErrUnknownProductType = fmt.Errorf("product type: %w", ErrNotFound)
	ErrNotIdentified      = fmt.Errorf("paths do not match any product grammar: %w", ErrNotFound)
)

// FieldError reports a named filename field that analysis required but the
// matched grammar did not capture. This indicates a grammar/input mismatch.
type FieldError struct {
	Field    string // grammar field name
	Filename string // basename the grammar matched
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q not captured from filename %q", e.Field, e.Filename)
}

// Unwrap returns the underlying error type.
func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// DocumentError reports a metadata document that could not be read from a
// product container.
type DocumentError struct {
	Document string // document path inside the container
	Product  string // product path on disk
	Err      error  // underlying error
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("document %s in %s: %v", e.Document, e.Product, e.Err)
	}
	return fmt.Sprintf("document %s not found in %s", e.Document, e.Product)
}

// Unwrap returns the underlying error.
func (e *DocumentError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ContainerError reports an unsupported or unreadable package container.
type ContainerError struct {
	Format string // declared package format
	Path   string // container path
	Err    error  // underlying error, nil for unsupported formats
}

// Error implements the error interface.
func (e *ContainerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("container %s (%s): %v", e.Path, e.Format, e.Err)
	}
	return fmt.Sprintf("container %s: unsupported package format %q", e.Path, e.Format)
}

// Unwrap returns the underlying error.
func (e *ContainerError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// ParseError reports malformed metadata: a missing expected element, an
// unparseable date, or a non-numeric field. No partial property bag is
// returned when analysis hits one.
type ParseError struct {
	Document string // document the value came from ("" for filename fields)
	Element  string // element path or field name
	Err      error  // underlying error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Document == "" {
		return fmt.Sprintf("parsing %s: %v", e.Element, e.Err)
	}
	return fmt.Sprintf("parsing %s in %s: %v", e.Element, e.Document, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}
