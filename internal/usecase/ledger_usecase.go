package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/entityledger/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = domain.ErrInconsistentLedger

	// ErrBatchTooLarge is returned when a batch exceeds the configured record limit.
	ErrBatchTooLarge = errors.New("batch exceeds maximum number of records")
)

// LedgerUseCase owns the current ledger and replaces it on every successful ingest.
type LedgerUseCase struct {
	idGen        IDGenerator
	metrics      MetricsRecorder
	logger       zerolog.Logger
	maxBatchSize int
	now          func() time.Time

	ingestMu sync.Mutex
	mu       sync.RWMutex
	current  *domain.Ledger
}

// Config holds LedgerUseCase dependencies.
type Config struct {
	IDGenerator  IDGenerator
	Metrics      MetricsRecorder
	Logger       zerolog.Logger
	MaxBatchSize int
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(cfg Config) *LedgerUseCase {
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}

	return &LedgerUseCase{
		idGen:        cfg.IDGenerator,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		maxBatchSize: cfg.MaxBatchSize,
		now:          time.Now,
	}
}

// Ingest builds a ledger from records and makes it current.
// On any error the previously current ledger stays in place.
func (uc *LedgerUseCase) Ingest(ctx context.Context, records []string) (*domain.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(records) > uc.maxBatchSize {
		uc.metrics.IngestFailed(failureReason(ErrBatchTooLarge))
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(records), uc.maxBatchSize)
	}

	uc.ingestMu.Lock()
	defer uc.ingestMu.Unlock()

	start := uc.now()

	ledger, err := domain.Ingest(records)
	if err != nil {
		uc.metrics.IngestFailed(failureReason(err))
		uc.logger.Warn().
			Err(err).
			Int("records", len(records)).
			Msg("ingest rejected")
		return nil, err
	}

	var id string
	if uc.idGen != nil {
		id = uc.idGen.Generate()
	}
	ledger = ledger.Stamped(id, uc.now().UTC())

	uc.mu.Lock()
	uc.current = ledger
	uc.mu.Unlock()

	duration := uc.now().Sub(start)
	uc.metrics.IngestSucceeded(ledger.TransactionCount(), len(ledger.Entities()), duration)
	uc.logger.Info().
		Str("ledger_id", ledger.ID).
		Int("transactions", ledger.TransactionCount()).
		Int("entities", len(ledger.Entities())).
		Dur("duration", duration).
		Msg("ledger ingested")

	return ledger, nil
}

// Validate checks every record without touching the current ledger.
func (uc *LedgerUseCase) Validate(ctx context.Context, records []string) ([]*domain.ValidationError, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return domain.ValidationErrors(domain.ValidateRecords(records)), nil
}

// Current returns the current ledger, or nil if nothing has been ingested.
func (uc *LedgerUseCase) Current() *domain.Ledger {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.current
}

// GetBalanceInput represents input for a balance query.
type GetBalanceInput struct {
	Entity string
	OnDate *time.Time
}

// GetBalance returns the entity balance, bounded by OnDate when set.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, input GetBalanceInput) (decimal.Decimal, error) {
	ledger := uc.Current()

	var (
		balance decimal.Decimal
		err     error
	)
	if input.OnDate == nil {
		balance, err = ledger.Balance(input.Entity)
	} else {
		balance, err = ledger.BalanceAt(input.Entity, *input.OnDate)
	}

	uc.metrics.BalanceQueried(err == nil)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// ListEntities lists the entities of the current ledger.
func (uc *LedgerUseCase) ListEntities(ctx context.Context) []string {
	entities := uc.Current().Entities()
	if entities == nil {
		return []string{}
	}
	return entities
}

// GetEntriesInput represents input for listing entries.
type GetEntriesInput struct {
	Entity string
	Limit  int
	Offset int
}

// GetEntries lists entries posted to an entity, oldest first.
func (uc *LedgerUseCase) GetEntries(ctx context.Context, input GetEntriesInput) ([]domain.Entry, error) {
	if input.Limit <= 0 {
		input.Limit = DefaultEntriesLimit
	}
	if input.Limit > MaxEntriesLimit {
		input.Limit = MaxEntriesLimit
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	entries, err := uc.Current().EntriesFor(input.Entity)
	if err != nil {
		return nil, err
	}

	if input.Offset >= len(entries) {
		return []domain.Entry{}, nil
	}
	end := min(input.Offset+input.Limit, len(entries))
	return entries[input.Offset:end], nil
}

// CheckConsistency verifies that the current ledger is balanced.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (bool, error) {
	if err := uc.Current().CheckConsistency(); err != nil {
		uc.logger.Error().Err(err).Msg("ledger consistency check failed")
		return false, err
	}
	return true, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrBatchTooLarge):
		return "batch_too_large"
	case errors.Is(err, domain.ErrMalformedRecord):
		return "malformed_record"
	case errors.Is(err, domain.ErrMissingValue):
		return "missing_value"
	case errors.Is(err, domain.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "unknown"
	}
}
