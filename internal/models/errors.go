package models

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrNotFound indicates a sitemap or URL is not registered
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat indicates no document generator exists for a format
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// UnsupportedFormatError is returned when rendering is requested in a
// format that has no renderer or formatting rule.
type UnsupportedFormatError struct {
	Format Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q", string(e.Format))
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// ConfigurationError reports a malformed configuration value that has no
// sane default.
type ConfigurationError struct {
	Key   string
	Value interface{}
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration %s=%v: %v", e.Key, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid configuration %s=%v", e.Key, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IOError wraps a filesystem failure during save or import.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}
