package reconciliation

import (
	"errors"
	"fmt"

	"bookrecon/pkg/models"
)

// Common reconciliation errors
var (
	// ErrInputContract is returned for records the engine cannot match safely,
	// e.g. a payment without a readable amount.
	ErrInputContract = errors.New("input contract violation")

	// ErrUnresolvedReference marks an invoice number without a parsed document.
	// It is recorded on the payment and logged, never returned.
	ErrUnresolvedReference = errors.New("unresolved invoice reference")

	// ErrAmbiguousMatch marks a payment whose best order candidates tied on score.
	// It is recorded on the payment and logged, never returned.
	ErrAmbiguousMatch = errors.New("ambiguous order match")

	// ErrInvalidConfig is returned when the engine configuration is unusable.
	ErrInvalidConfig = errors.New("invalid reconciliation config")
)

// RecordError reports a payment that was routed to the errors list.
type RecordError struct {
	// Op is the check that failed (e.g., "validatePayment").
	Op string

	// PaymentID identifies the offending record; its index when it has no ID.
	PaymentID string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string

	// Payment is an unmodified copy of the rejected record.
	Payment models.Payment
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("reconciliation: %s %s: %s: %v", e.Op, e.PaymentID, e.Details, e.Err)
	}
	return fmt.Sprintf("reconciliation: %s %s: %v", e.Op, e.PaymentID, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RecordError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *RecordError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRecordError creates a RecordError for an input contract violation.
func NewRecordError(op, paymentID, details string) *RecordError {
	return &RecordError{
		Op:        op,
		PaymentID: paymentID,
		Err:       ErrInputContract,
		Details:   details,
	}
}
