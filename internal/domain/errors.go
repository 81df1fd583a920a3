package domain

import (
	"errors"
	"fmt"
)

var (
	// Record validation reasons
	ErrMalformedRecord = errors.New("record must have a date, source, target and amount")
	ErrMissingValue    = errors.New("all record fields must have a value")
	ErrInvalidDate     = errors.New("date is invalid")
	ErrInvalidAmount   = errors.New("amount is invalid")

	// Ledger errors
	ErrEntityNotFound     = errors.New("entity not found")
	ErrInconsistentLedger = errors.New("ledger is inconsistent: entries do not sum to zero")
)

// ValidationError reports a raw record that could not be parsed.
type ValidationError struct {
	Record string
	Reason error
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %q: %v", e.Reason, e.Record, e.Err)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Record)
}

// Unwrap exposes both the reason sentinel and the underlying parser error.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Reason, e.Err}
	}
	return []error{e.Reason}
}

func newValidationError(record string, reason, cause error) *ValidationError {
	return &ValidationError{Record: record, Reason: reason, Err: cause}
}
