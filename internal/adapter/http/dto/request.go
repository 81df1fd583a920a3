package dto

import (
	"errors"
	"time"

	"github.com/iho/entityledger/internal/domain"
)

// ErrNoRecords is returned when an ingest or validate request carries no records field.
var ErrNoRecords = errors.New("records field is required")

// IngestRequest represents a batch of raw transaction records.
type IngestRequest struct {
	Records []string `json:"records"`
}

// Validate checks the request shape. Record contents are validated by the domain.
func (r *IngestRequest) Validate() error {
	if r.Records == nil {
		return ErrNoRecords
	}
	return nil
}

// ParseOnDate parses the optional "on" query value of a balance request.
func ParseOnDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	d, err := domain.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
