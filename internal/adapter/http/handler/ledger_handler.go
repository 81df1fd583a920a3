package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/entityledger/internal/adapter/http/dto"
	"github.com/iho/entityledger/internal/domain"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	Ingest(ctx context.Context, records []string) (*domain.Ledger, error)
	Validate(ctx context.Context, records []string) ([]*domain.ValidationError, error)
	CheckConsistency(ctx context.Context) (bool, error)
}

// LedgerHandler handles ledger-wide HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// Ingest parses a batch of records and replaces the current ledger.
func (h *LedgerHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRecords(w, r)
	if !ok {
		return
	}

	ledger, err := h.ledgerUC.Ingest(r.Context(), req.Records)
	if err != nil {
		status := mapDomainError(err)
		if status == http.StatusBadRequest {
			writeJSON(w, status, dto.ErrorFromValidation(err))
			return
		}
		writeError(w, status, "failed to ingest records", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.IngestFromDomain(ledger))
}

// Validate reports every invalid record in a batch without building a ledger.
func (h *LedgerHandler) Validate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRecords(w, r)
	if !ok {
		return
	}

	failures, err := h.ledgerUC.Validate(r.Context(), req.Records)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to validate records", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ValidateFromDomain(len(req.Records), failures))
}

// Consistency checks that the current ledger sums to zero.
func (h *LedgerHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	ok, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		writeJSON(w, mapDomainError(err), dto.ConsistencyResponse{
			Consistent: false,
			Message:    err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyResponse{Consistent: ok})
}

func decodeRecords(w http.ResponseWriter, r *http.Request) (*dto.IngestRequest, bool) {
	var req dto.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return nil, false
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return nil, false
	}
	return &req, true
}
