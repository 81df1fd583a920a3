package dto

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/entityledger/internal/domain"
)

// IngestResponse summarises a freshly built ledger.
type IngestResponse struct {
	LedgerID     string    `json:"ledger_id"`
	Transactions int       `json:"transactions"`
	Entities     int       `json:"entities"`
	Entries      int       `json:"entries"`
	BuiltAt      time.Time `json:"built_at"`
}

// IngestFromDomain converts a ledger to an ingest response.
func IngestFromDomain(l *domain.Ledger) *IngestResponse {
	return &IngestResponse{
		LedgerID:     l.ID,
		Transactions: l.TransactionCount(),
		Entities:     len(l.Entities()),
		Entries:      l.EntryCount(),
		BuiltAt:      l.BuiltAt,
	}
}

// RecordErrorResponse describes one rejected record.
type RecordErrorResponse struct {
	Record string `json:"record"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// RecordErrorFromDomain converts a validation error to a response.
func RecordErrorFromDomain(ve *domain.ValidationError) RecordErrorResponse {
	resp := RecordErrorResponse{
		Record: ve.Record,
		Reason: ve.Reason.Error(),
	}
	if ve.Err != nil {
		resp.Detail = ve.Err.Error()
	}
	return resp
}

// ValidateResponse is the collect-all validation report.
type ValidateResponse struct {
	Valid   bool                  `json:"valid"`
	Records int                   `json:"records"`
	Errors  []RecordErrorResponse `json:"errors"`
}

// ValidateFromDomain builds a validation report.
func ValidateFromDomain(records int, failures []*domain.ValidationError) *ValidateResponse {
	resp := &ValidateResponse{
		Valid:   len(failures) == 0,
		Records: records,
		Errors:  make([]RecordErrorResponse, len(failures)),
	}
	for i, ve := range failures {
		resp.Errors[i] = RecordErrorFromDomain(ve)
	}
	return resp
}

// BalanceResponse represents an entity balance.
type BalanceResponse struct {
	Entity  string          `json:"entity"`
	On      *string         `json:"on,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

// NewBalanceResponse builds a balance response; on is nil for the current balance.
func NewBalanceResponse(entity string, on *time.Time, balance decimal.Decimal) *BalanceResponse {
	resp := &BalanceResponse{Entity: entity, Balance: balance}
	if on != nil {
		s := on.Format(domain.DateLayout)
		resp.On = &s
	}
	return resp
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []domain.Entry) []EntryResponse {
	result := make([]EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryResponse{
			Date:   e.Date.Format(domain.DateLayout),
			Amount: e.Amount,
		}
	}
	return result
}

// EntitiesResponse lists entity names.
type EntitiesResponse struct {
	Entities []string `json:"entities"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string               `json:"error"`
	Message string               `json:"message,omitempty"`
	Record  *RecordErrorResponse `json:"record,omitempty"`
}

// ErrorFromValidation builds an error response for a rejected batch.
func ErrorFromValidation(err error) *ErrorResponse {
	resp := &ErrorResponse{
		Error:   "invalid record",
		Message: err.Error(),
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		rec := RecordErrorFromDomain(ve)
		resp.Record = &rec
	}
	return resp
}

// ConsistencyResponse reports whether the ledger balances.
type ConsistencyResponse struct {
	Consistent bool   `json:"consistent"`
	Message    string `json:"message,omitempty"`
}
