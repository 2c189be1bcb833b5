package invoice

import (
	"errors"
	"fmt"
	"strings"
)

// Common invoice parsing errors
var (
	// ErrPartialDocument is returned when some expected anchors were missing and the
	// affected fields fell back to defaults.
	ErrPartialDocument = errors.New("invoice fields fell back to defaults")

	// ErrEmptyDocument is returned when no usable field could be read from the document.
	ErrEmptyDocument = errors.New("invoice contains no usable fields")

	// ErrInvalidFilename is returned when number or date cannot be read from a file name.
	ErrInvalidFilename = errors.New("invalid invoice file name")
)

// ParseError reports which fields of a document fell back to defaults. The parsed
// document is still returned alongside it.
type ParseError struct {
	// Op is the operation that failed (e.g., "Parse", "ParseFile").
	Op string

	// DocumentID is the invoice number of the affected document.
	DocumentID string

	// Fields lists the fields that fell back, in detection order.
	Fields []string

	// Err is ErrPartialDocument or ErrEmptyDocument.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invoice: %s %s: %v (%s)", e.Op, e.DocumentID, e.Err, strings.Join(e.Fields, ", "))
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ParseError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// Empty reports whether the document produced no usable field at all.
func (e *ParseError) Empty() bool {
	return errors.Is(e.Err, ErrEmptyDocument)
}

// NewParseError creates a ParseError for the given fallback fields.
func NewParseError(op, documentID string, fields []string, empty bool) *ParseError {
	err := ErrPartialDocument
	if empty {
		err = ErrEmptyDocument
	}
	return &ParseError{
		Op:         op,
		DocumentID: documentID,
		Fields:     fields,
		Err:        err,
	}
}
