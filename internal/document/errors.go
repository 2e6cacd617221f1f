package document

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentTooLarge is returned when an input exceeds MaxDocumentSizeBytes.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit")

	// ErrUnsupportedFormat is returned for file extensions other than .json, .yaml and .yml.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrMalformed is returned when a document is not valid JSON or YAML.
	ErrMalformed = errors.New("malformed document")
)

// IOError wraps a read, decode or write failure with the file it concerns.
type IOError struct {
	// Op is the operation that failed ("Read", "Decode", "Write").
	Op string

	// Path is the file path, or "-" for stdin/stdout.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("document: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *IOError) Unwrap() error {
	return e.Err
}
