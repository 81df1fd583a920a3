package usecase

import (
	"context"
	"time"
)

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// MetricsRecorder receives ingest and query outcomes.
type MetricsRecorder interface {
	IngestSucceeded(transactions, entities int, duration time.Duration)
	IngestFailed(reason string)
	BalanceQueried(found bool)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}

type nopRecorder struct{}

func (nopRecorder) IngestSucceeded(int, int, time.Duration) {}
func (nopRecorder) IngestFailed(string)                     {}
func (nopRecorder) BalanceQueried(bool)                     {}
