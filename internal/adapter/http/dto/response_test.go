package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/entityledger/internal/domain"
)

func TestIngestFromDomain(t *testing.T) {
	l, err := domain.Ingest([]string{
		"2015-01-16,john,mary,125.00",
		"2015-01-17,john,supermarket,20.00",
		"2015-01-17,mary,insurance,100.00",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	resp := IngestFromDomain(l.Stamped("01HX", time.Now()))
	if resp.LedgerID != "01HX" || resp.Transactions != 3 || resp.Entities != 4 || resp.Entries != 6 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestNewBalanceResponse(t *testing.T) {
	current := NewBalanceResponse("mary", nil, decimal.RequireFromString("25.00"))
	data, err := json.Marshal(current)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"entity":"mary","balance":"25"}` {
		t.Fatalf("unexpected json: %s", data)
	}

	on := time.Date(2015, 1, 16, 0, 0, 0, 0, time.UTC)
	dated := NewBalanceResponse("mary", &on, decimal.RequireFromString("125"))
	if dated.On == nil || *dated.On != "2015-01-16" {
		t.Fatalf("expected formatted date, got %v", dated.On)
	}
}

func TestErrorFromValidation(t *testing.T) {
	ve := &domain.ValidationError{
		Record: "2015-01-16,john,mary,abc",
		Reason: domain.ErrInvalidAmount,
		Err:    errors.New("can't convert abc to decimal"),
	}

	resp := ErrorFromValidation(fmt.Errorf("ingest: %w", ve))
	if resp.Record == nil {
		t.Fatalf("expected record details")
	}
	if resp.Record.Reason != domain.ErrInvalidAmount.Error() || resp.Record.Detail == "" {
		t.Fatalf("unexpected record details: %+v", resp.Record)
	}

	plain := ErrorFromValidation(errors.New("boom"))
	if plain.Record != nil {
		t.Fatalf("expected no record details for a plain error")
	}
}

func TestValidateFromDomain(t *testing.T) {
	resp := ValidateFromDomain(3, nil)
	if !resp.Valid || resp.Records != 3 || resp.Errors == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
