// Package journal is the append-only record of everything the executor
// did, plus the state snapshots it reloads on restart.
package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/order"
)

// Source says what produced an order.
type Source string

const (
	SourceManual Source = "manual"
	SourceSignal Source = "signal"
	SourceSweep  Source = "sweep"
)

var ErrNotFound = errors.New("activity not found")

// Activity is one executor outcome. Every order attempt, accepted or not,
// produces exactly one.
type Activity struct {
	ID          string          `json:"id"`
	Time        time.Time       `json:"time"`
	OrderID     string          `json:"order_id"`
	Symbol      string          `json:"symbol"`
	Side        order.Side      `json:"side"`
	Type        order.Type      `json:"type"`
	Source      Source          `json:"source"`
	Mode        order.Mode      `json:"mode"`
	Status      string          `json:"status"`
	FillQty     decimal.Decimal `json:"fill_qty"`
	FillPrice   decimal.Decimal `json:"fill_price"`
	CashDelta   decimal.Decimal `json:"cash_delta"`
	Reason      string          `json:"reason,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

type Journal interface {
	Append(ctx context.Context, a Activity) error
	List(ctx context.Context) ([]Activity, error)
	Close() error
}

// Last returns the n most recent of recs, which are oldest first. A
// negative n keeps them all.
func Last(recs []Activity, n int) []Activity {
	if n < 0 || len(recs) <= n {
		return recs
	}
	return recs[len(recs)-n:]
}

// Memory keeps activity in process.
type Memory struct {
	mu   sync.Mutex
	recs []Activity
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Append(ctx context.Context, a Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, a)
	return nil
}

func (m *Memory) List(ctx context.Context) ([]Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Activity, len(m.recs))
	copy(out, m.recs)
	return out, nil
}

func (m *Memory) Close() error { return nil }

// MemoryState holds named state blobs in process.
type MemoryState struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryState() *MemoryState {
	return &MemoryState{blobs: map[string][]byte{}}
}

func (m *MemoryState) SaveState(ctx context.Context, name string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = append([]byte(nil), blob...)
	return nil
}

// LoadState returns the blob saved under name, or nil when there is none.
func (m *MemoryState) LoadState(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[name]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}
