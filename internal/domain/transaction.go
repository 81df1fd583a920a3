package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date layout used by records and queries.
const DateLayout = "2006-01-02"

// Transaction represents a money movement from Source to Target on Date.
type Transaction struct {
	Date   time.Time
	Source string
	Target string
	Amount decimal.Decimal
}

// Entry is a single signed amount posted against one entity.
type Entry struct {
	Date   time.Time
	Amount decimal.Decimal
}

// NewDate returns the calendar date at midnight UTC.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ToDate drops the time of day, keeping the calendar date as seen in t's location.
func ToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return ToDate(t), nil
}
