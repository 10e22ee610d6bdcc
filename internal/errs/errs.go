// Package errs defines the error kinds reported by disassembly and reassembly.
package errs

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine wraps exactly one of these.
var (
	ErrInputNotFound        = errors.New("input not found")
	ErrMalformedDocument    = errors.New("malformed document")
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrFilesystem           = errors.New("filesystem error")
	ErrMissingSkeleton      = errors.New("missing skeleton")
	ErrInconsistentMetadata = errors.New("inconsistent multi-level metadata")
)

// Error carries the kind, the failed operation and the path it concerned.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

// New returns an *Error of the given kind.
func New(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := "failed to " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		return fmt.Sprintf("%s; %v", msg, e.Err)
	}
	return fmt.Sprintf("%s; %v", msg, e.Kind)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound reports a missing input path.
func NotFound(op, path string, err error) error {
	return New(ErrInputNotFound, op, path, err)
}

// Malformed reports a document that could not be parsed or has an invalid structure.
func Malformed(op, path string, err error) error {
	return New(ErrMalformedDocument, op, path, err)
}

// Unsupported reports a format or extension no adapter handles.
func Unsupported(op, path string, err error) error {
	return New(ErrUnsupportedFormat, op, path, err)
}

// FS reports a create, read, write or delete failure.
func FS(op, path string, err error) error {
	return New(ErrFilesystem, op, path, err)
}

var kinds = []struct {
	err   error
	label string
}{
	{ErrInputNotFound, "input_not_found"},
	{ErrMalformedDocument, "malformed_document"},
	{ErrUnsupportedFormat, "unsupported_format"},
	{ErrFilesystem, "filesystem"},
	{ErrMissingSkeleton, "missing_skeleton"},
	{ErrInconsistentMetadata, "inconsistent_metadata"},
}

// KindOf returns a short label for the kind wrapped by err, or "unknown".
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.label
		}
	}
	return "unknown"
}
