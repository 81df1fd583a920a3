package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/entityledger/internal/adapter/http/dto"
	"github.com/iho/entityledger/internal/domain"
	"github.com/iho/entityledger/internal/usecase"
)

// EntityService defines the behavior needed by EntityHandler.
type EntityService interface {
	ListEntities(ctx context.Context) []string
	GetBalance(ctx context.Context, input usecase.GetBalanceInput) (decimal.Decimal, error)
	GetEntries(ctx context.Context, input usecase.GetEntriesInput) ([]domain.Entry, error)
}

// EntityHandler handles entity-related HTTP requests.
type EntityHandler struct {
	entityUC EntityService
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(entityUC EntityService) *EntityHandler {
	return &EntityHandler{entityUC: entityUC}
}

// List lists every entity in the current ledger.
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.EntitiesResponse{
		Entities: h.entityUC.ListEntities(r.Context()),
	})
}

// GetBalance returns the balance of an entity, optionally as of the "on" date.
func (h *EntityHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	name, ok := entityName(w, r)
	if !ok {
		return
	}

	on, err := dto.ParseOnDate(r.URL.Query().Get("on"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}

	balance, err := h.entityUC.GetBalance(r.Context(), usecase.GetBalanceInput{
		Entity: name,
		OnDate: on,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewBalanceResponse(name, on, balance))
}

// ListEntries lists entries posted to an entity.
func (h *EntityHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	name, ok := entityName(w, r)
	if !ok {
		return
	}

	entries, err := h.entityUC.GetEntries(r.Context(), usecase.GetEntriesInput{
		Entity: name,
		Limit:  parseIntQuery(r, "limit", usecase.DefaultEntriesLimit),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// entityName returns the decoded {name} path parameter. chi matches on the
// escaped path when one is present, so the parameter may still be escaped.
func entityName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		decoded, err := url.PathUnescape(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid entity name", err.Error())
			return "", false
		}
		name = decoded
	}

	if name == "" {
		writeError(w, http.StatusBadRequest, "missing entity name", "")
		return "", false
	}
	return name, true
}
