package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/entityledger/internal/adapter/http/middleware"
	"github.com/iho/entityledger/internal/infrastructure/config"
)

const batch = `{"records":["2015-01-16,john,mary,125.00","2015-01-17,john,supermarket,20.00"]}`

func testConfig() *config.Config {
	return &config.Config{
		MaxBatchSize:    100,
		IngestRateLimit: 0,
	}
}

func post(h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/ingest", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuildRouterWithoutRedis(t *testing.T) {
	reg := prometheus.NewRegistry()
	router, limiter := buildRouter(testConfig(), zerolog.Nop(), reg, reg, nil)

	if limiter != nil {
		t.Fatalf("expected no limiter when rate is zero")
	}

	if rec := post(router, batch, nil); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "entityledger_ingests_total 1") {
		t.Fatalf("expected ingest metric to be exposed, got:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if !strings.Contains(rec.Body.String(), `"redis":"disabled"`) {
		t.Fatalf("expected redis to be reported disabled, got %s", rec.Body.String())
	}
}

func TestBuildRouterWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := testConfig()
	cfg.IngestRateLimit = 100
	cfg.IngestRateBurst = 100

	reg := prometheus.NewRegistry()
	router, limiter := buildRouter(cfg, zerolog.Nop(), reg, reg, client)
	if limiter == nil {
		t.Fatalf("expected limiter to be configured")
	}

	headers := map[string]string{middleware.IdempotencyKeyHeader: "k1"}
	first := post(router, batch, headers)
	second := post(router, batch, headers)

	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}
	if second.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatalf("expected second request to be replayed from redis")
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("expected replay of the original 201 response, got %d", second.Code)
	}
}
