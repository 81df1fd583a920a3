package usecase

import "time"

const (
	// DefaultMaxBatchSize caps the number of records accepted by a single ingest.
	DefaultMaxBatchSize = 1_000_000

	// DefaultEntriesLimit and MaxEntriesLimit bound entry listings.
	DefaultEntriesLimit = 20
	MaxEntriesLimit     = 1000

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPending is stored under a key while the first request holding it is in flight.
	IdempotencyPending = "processing"
)
