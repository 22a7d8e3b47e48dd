// Package ledger records which signals have been acted on, so a signal is
// executed at most once per trading day.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Outcome is the state of a ledger entry.
type Outcome string

const (
	Reserved Outcome = "reserved"
	Filled   Outcome = "filled"
	Rejected Outcome = "rejected"
)

// Result of a Reserve call.
type Result int

const (
	Accepted Result = iota
	Duplicate
)

func (r Result) String() string {
	if r == Duplicate {
		return "duplicate"
	}
	return "accepted"
}

var (
	ErrDuplicate = errors.New("duplicate signal")
	ErrNotFound  = errors.New("ledger entry not found")
)

type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	Symbol      string    `json:"symbol"`
	Kind        string    `json:"kind"`
	SignalID    string    `json:"signal_id"`
	Bucket      string    `json:"bucket"`
	Outcome     Outcome   `json:"outcome"`
	OrderID     string    `json:"order_id,omitempty"`
	Time        time.Time `json:"time"`
}

// Fingerprint is the deterministic identity of a signal within a bucket.
func Fingerprint(symbol, kind, signalID, bucket string) string {
	return strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(symbol)),
		strings.ToLower(strings.TrimSpace(kind)),
		strings.TrimSpace(signalID),
		bucket,
	}, "|")
}

// NewEntry builds a reserved entry with its fingerprint filled in.
func NewEntry(symbol, kind, signalID, bucket string, at time.Time) Entry {
	return Entry{
		Fingerprint: Fingerprint(symbol, kind, signalID, bucket),
		Symbol:      strings.ToUpper(strings.TrimSpace(symbol)),
		Kind:        strings.ToLower(strings.TrimSpace(kind)),
		SignalID:    strings.TrimSpace(signalID),
		Bucket:      bucket,
		Outcome:     Reserved,
		Time:        at,
	}
}

// Ledger is an insert-if-absent store keyed by fingerprint.
//
// Reserve must be atomic: of any number of concurrent callers with the same
// fingerprint exactly one sees Accepted. Release undoes a reservation whose
// execution never completed; Resolve records the final outcome.
type Ledger interface {
	Reserve(ctx context.Context, e Entry) (Result, error)
	Resolve(ctx context.Context, fingerprint string, outcome Outcome, orderID string) error
	Release(ctx context.Context, fingerprint string) error
	Entries(ctx context.Context) ([]Entry, error)
	Prune(ctx context.Context, beforeBucket string) (int, error)
}

func validate(e Entry) error {
	if e.Fingerprint == "" {
		return fmt.Errorf("ledger: empty fingerprint")
	}
	return nil
}
