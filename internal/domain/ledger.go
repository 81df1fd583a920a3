package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger holds the double-entry postings of one ingested batch, keyed by entity.
// A Ledger is never modified after it is built; Stamped returns a labelled copy.
type Ledger struct {
	ID       string
	BuiltAt  time.Time
	entities map[string][]Entry
	txCount  int
}

// Ingest parses records and builds a ledger from them.
// Nothing is built if any record is invalid; the first failure is returned.
func Ingest(records []string) (*Ledger, error) {
	txs, err := ParseRecords(records)
	if err != nil {
		return nil, err
	}
	return BuildLedger(txs), nil
}

// BuildLedger posts a debit to the source and a credit to the target of every
// transaction, in date order. Transactions sharing a date keep their batch order.
func BuildLedger(txs []Transaction) *Ledger {
	entities := make(map[string][]Entry)
	for _, tx := range txs {
		if _, ok := entities[tx.Source]; !ok {
			entities[tx.Source] = []Entry{}
		}
		if _, ok := entities[tx.Target]; !ok {
			entities[tx.Target] = []Entry{}
		}
	}

	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for _, tx := range sorted {
		entities[tx.Source] = append(entities[tx.Source], Entry{Date: tx.Date, Amount: tx.Amount.Neg()})
		entities[tx.Target] = append(entities[tx.Target], Entry{Date: tx.Date, Amount: tx.Amount})
	}

	return &Ledger{
		entities: entities,
		txCount:  len(txs),
	}
}

// Stamped returns a copy of the ledger carrying id and builtAt. Postings are shared.
func (l *Ledger) Stamped(id string, builtAt time.Time) *Ledger {
	return &Ledger{
		ID:       id,
		BuiltAt:  builtAt,
		entities: l.entities,
		txCount:  l.txCount,
	}
}

// Balance returns the sum of all entries posted to entity.
func (l *Ledger) Balance(entity string) (decimal.Decimal, error) {
	entries, err := l.lookup(entity)
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, e := range entries {
		balance = balance.Add(e.Amount)
	}
	return balance, nil
}

// BalanceAt returns the balance of entity at the close of onDate, inclusive.
// Only the calendar date of onDate is considered.
func (l *Ledger) BalanceAt(entity string, onDate time.Time) (decimal.Decimal, error) {
	entries, err := l.lookup(entity)
	if err != nil {
		return decimal.Zero, err
	}

	cutoff := ToDate(onDate)
	balance := decimal.Zero
	for _, e := range entries {
		if e.Date.After(cutoff) {
			break
		}
		balance = balance.Add(e.Amount)
	}
	return balance, nil
}

// Entities returns the entity identifiers in lexical order.
func (l *Ledger) Entities() []string {
	if l == nil {
		return nil
	}

	names := make([]string, 0, len(l.entities))
	for name := range l.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntriesFor returns a copy of the entries posted to entity, oldest first.
func (l *Ledger) EntriesFor(entity string) ([]Entry, error) {
	entries, err := l.lookup(entity)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Entries returns every posted entry across all entities, grouped by entity name.
func (l *Ledger) Entries() []Entry {
	var out []Entry
	for _, name := range l.Entities() {
		out = append(out, l.entities[name]...)
	}
	return out
}

// TransactionCount is the number of transactions the ledger was built from.
func (l *Ledger) TransactionCount() int {
	if l == nil {
		return 0
	}
	return l.txCount
}

// EntryCount is the number of posted entries, always twice TransactionCount.
func (l *Ledger) EntryCount() int {
	if l == nil {
		return 0
	}

	n := 0
	for _, entries := range l.entities {
		n += len(entries)
	}
	return n
}

// Total sums every entry in the ledger. It is zero for a consistent ledger.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.Entries() {
		total = total.Add(e.Amount)
	}
	return total
}

// CheckConsistency verifies the double-entry invariant.
func (l *Ledger) CheckConsistency() error {
	if !l.Total().IsZero() {
		return ErrInconsistentLedger
	}
	if l.EntryCount() != 2*l.TransactionCount() {
		return ErrInconsistentLedger
	}
	return nil
}

func (l *Ledger) lookup(entity string) ([]Entry, error) {
	if l == nil {
		return nil, ErrEntityNotFound
	}

	entries, ok := l.entities[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntityNotFound, entity)
	}
	return entries, nil
}
