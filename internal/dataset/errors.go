package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrSkippedRow marks export rows that do not describe a customer payment,
	// such as debits, balance lines and account closings.
	ErrSkippedRow = errors.New("row is not a customer payment")

	// ErrEmptySheet is returned when a sheet holds no header row.
	ErrEmptySheet = errors.New("sheet is empty")

	// ErrMissingField is returned when a required column is blank.
	ErrMissingField = errors.New("required field is empty")
)

// RowError reports a row that could not be converted.
type RowError struct {
	Source string // file or sheet name
	Row    int    // 1-based, header included
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Source, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// NewRowError wraps err with its position.
func NewRowError(source string, row int, err error) *RowError {
	return &RowError{Source: source, Row: row, Err: err}
}
