package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/entityledger/internal/adapter/http/dto"
	"github.com/iho/entityledger/internal/domain"
	"github.com/iho/entityledger/internal/usecase"
)

type entityServiceStub struct {
	listFn    func(ctx context.Context) []string
	balanceFn func(ctx context.Context, input usecase.GetBalanceInput) (decimal.Decimal, error)
	entriesFn func(ctx context.Context, input usecase.GetEntriesInput) ([]domain.Entry, error)
}

func (s *entityServiceStub) ListEntities(ctx context.Context) []string {
	return s.listFn(ctx)
}

func (s *entityServiceStub) GetBalance(ctx context.Context, input usecase.GetBalanceInput) (decimal.Decimal, error) {
	return s.balanceFn(ctx, input)
}

func (s *entityServiceStub) GetEntries(ctx context.Context, input usecase.GetEntriesInput) ([]domain.Entry, error) {
	return s.entriesFn(ctx, input)
}

func withEntity(req *http.Request, name string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("name", name)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestEntityHandler_GetBalance(t *testing.T) {
	var captured usecase.GetBalanceInput
	h := NewEntityHandler(&entityServiceStub{
		balanceFn: func(ctx context.Context, input usecase.GetBalanceInput) (decimal.Decimal, error) {
			captured = input
			return decimal.RequireFromString("-145.00"), nil
		},
	})

	req := withEntity(httptest.NewRequest(http.MethodGet, "/api/v1/entities/john/balance?on=2015-01-17", nil), "john")
	rec := httptest.NewRecorder()

	h.GetBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Entity != "john" {
		t.Fatalf("expected entity john, got %q", captured.Entity)
	}
	if captured.OnDate == nil || !captured.OnDate.Equal(domain.NewDate(2015, 1, 17)) {
		t.Fatalf("expected on date 2015-01-17, got %v", captured.OnDate)
	}

	var resp dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Balance.Equal(decimal.RequireFromString("-145")) {
		t.Fatalf("expected balance -145, got %s", resp.Balance)
	}
	if resp.On == nil || *resp.On != "2015-01-17" {
		t.Fatalf("expected on date echoed, got %v", resp.On)
	}
}

func TestEntityHandler_GetBalance_NoDate(t *testing.T) {
	var captured usecase.GetBalanceInput
	h := NewEntityHandler(&entityServiceStub{
		balanceFn: func(ctx context.Context, input usecase.GetBalanceInput) (decimal.Decimal, error) {
			captured = input
			return decimal.Zero, nil
		},
	})

	req := withEntity(httptest.NewRequest(http.MethodGet, "/api/v1/entities/mary/balance", nil), "mary")
	rec := httptest.NewRecorder()

	h.GetBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.OnDate != nil {
		t.Fatalf("expected no cutoff date, got %v", captured.OnDate)
	}
}

func TestEntityHandler_GetBalance_Errors(t *testing.T) {
	h := NewEntityHandler(&entityServiceStub{
		balanceFn: func(ctx context.Context, input usecase.GetBalanceInput) (decimal.Decimal, error) {
			return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrEntityNotFound, input.Entity)
		},
	})

	tests := []struct {
		name     string
		target   string
		entity   string
		expected int
	}{
		{"unknown entity", "/api/v1/entities/nobody/balance", "nobody", http.StatusNotFound},
		{"bad date", "/api/v1/entities/john/balance?on=17-01-2015", "john", http.StatusBadRequest},
		{"missing name", "/api/v1/entities//balance", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.GetBalance(rec, withEntity(httptest.NewRequest(http.MethodGet, tt.target, nil), tt.entity))

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestEntityHandler_List(t *testing.T) {
	h := NewEntityHandler(&entityServiceStub{
		listFn: func(ctx context.Context) []string { return []string{"john", "mary"} },
	})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/entities", nil))

	var resp dto.EntitiesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Entities) != 2 || resp.Entities[0] != "john" {
		t.Fatalf("unexpected entities: %+v", resp.Entities)
	}
}

func TestEntityHandler_ListEntries(t *testing.T) {
	var captured usecase.GetEntriesInput
	h := NewEntityHandler(&entityServiceStub{
		entriesFn: func(ctx context.Context, input usecase.GetEntriesInput) ([]domain.Entry, error) {
			captured = input
			return []domain.Entry{
				{Date: domain.NewDate(2015, 1, 16), Amount: decimal.RequireFromString("125.00")},
			}, nil
		},
	})

	req := withEntity(httptest.NewRequest(http.MethodGet, "/api/v1/entities/mary/entries?limit=5&offset=2", nil), "mary")
	rec := httptest.NewRecorder()

	h.ListEntries(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Entity != "mary" || captured.Limit != 5 || captured.Offset != 2 {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp []dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Date != "2015-01-16" {
		t.Fatalf("unexpected entries: %+v", resp)
	}
}

func TestEntityHandler_EscapedEntityName(t *testing.T) {
	var captured []string
	h := NewEntityHandler(&entityServiceStub{
		balanceFn: func(ctx context.Context, input usecase.GetBalanceInput) (decimal.Decimal, error) {
			captured = append(captured, input.Entity)
			return decimal.Zero, nil
		},
		entriesFn: func(ctx context.Context, input usecase.GetEntriesInput) ([]domain.Entry, error) {
			captured = append(captured, input.Entity)
			return nil, nil
		},
	})

	tests := []struct {
		name     string
		target   string
		param    string
		serve    http.HandlerFunc
		expected string
	}{
		{"balance with slash", "/api/v1/entities/acme%2Fops/balance", "acme%2Fops", h.GetBalance, "acme/ops"},
		{"entries with slash", "/api/v1/entities/acme%2Fops/entries", "acme%2Fops", h.ListEntries, "acme/ops"},
		{"literal percent", "/api/v1/entities/50%25%20fund/balance", "50% fund", h.GetBalance, "50% fund"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured = nil
			rec := httptest.NewRecorder()
			tt.serve(rec, withEntity(httptest.NewRequest(http.MethodGet, tt.target, nil), tt.param))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if len(captured) != 1 || captured[0] != tt.expected {
				t.Fatalf("expected entity %q, got %v", tt.expected, captured)
			}
		})
	}
}

func TestEntityHandler_BadlyEscapedEntityName(t *testing.T) {
	h := NewEntityHandler(&entityServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entities/acme%2Fops/balance", nil)
	rec := httptest.NewRecorder()
	h.GetBalance(rec, withEntity(req, "acme%zz"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
