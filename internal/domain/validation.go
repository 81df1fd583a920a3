package domain

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	recordSeparator = ","
	recordFields    = 4
)

// Coarse shape check only: 19xx or 20xx years. Calendar validity is checked by ParseDate.
var dateRegex = regexp.MustCompile(`^[12][90]\d\d-\d\d-\d\d$`)

// ParseRecord parses a "date,source,target,amount" record into a Transaction.
func ParseRecord(record string) (Transaction, error) {
	fields := strings.Split(record, recordSeparator)
	if len(fields) != recordFields {
		return Transaction{}, newValidationError(record, ErrMalformedRecord, nil)
	}

	dateField, source, target, amountField := fields[0], fields[1], fields[2], fields[3]

	for _, f := range fields {
		if f == "" {
			return Transaction{}, newValidationError(record, ErrMissingValue, nil)
		}
	}

	if !dateRegex.MatchString(dateField) {
		return Transaction{}, newValidationError(record, ErrInvalidDate, nil)
	}

	date, err := ParseDate(dateField)
	if err != nil {
		return Transaction{}, newValidationError(record, ErrInvalidDate, err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(amountField))
	if err != nil {
		return Transaction{}, newValidationError(record, ErrInvalidAmount, err)
	}

	return Transaction{
		Date:   date,
		Source: source,
		Target: target,
		Amount: amount,
	}, nil
}

// ParseRecords parses records in order and stops at the first invalid one.
func ParseRecords(records []string) ([]Transaction, error) {
	txs := make([]Transaction, 0, len(records))
	for _, record := range records {
		tx, err := ParseRecord(record)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// ValidateRecords checks every record and joins all validation errors in input order.
func ValidateRecords(records []string) error {
	var errs []error
	for _, record := range records {
		if _, err := ParseRecord(record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidationErrors flattens an error returned by ValidateRecords.
func ValidationErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}

	if ve, ok := err.(*ValidationError); ok {
		return []*ValidationError{ve}
	}

	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return nil
	}

	var out []*ValidationError
	for _, e := range joined.Unwrap() {
		var ve *ValidationError
		if errors.As(e, &ve) {
			out = append(out, ve)
		}
	}
	return out
}
