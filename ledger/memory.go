package ledger

import (
	"context"
	"sort"
	"sync"
)

// Memory is a process-local Ledger.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]Entry{}}
}

func (m *Memory) Reserve(ctx context.Context, e Entry) (Result, error) {
	if err := validate(e); err != nil {
		return Accepted, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[e.Fingerprint]; ok {
		return Duplicate, nil
	}
	if e.Outcome == "" {
		e.Outcome = Reserved
	}
	m.entries[e.Fingerprint] = e
	return Accepted, nil
}

func (m *Memory) Resolve(ctx context.Context, fingerprint string, outcome Outcome, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[fingerprint]
	if !ok {
		return ErrNotFound
	}
	e.Outcome = outcome
	e.OrderID = orderID
	m.entries[fingerprint] = e
	return nil
}

func (m *Memory) Release(ctx context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, fingerprint)
	return nil
}

func (m *Memory) Entries(ctx context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out, nil
}

func (m *Memory) Prune(ctx context.Context, beforeBucket string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for fp, e := range m.entries {
		if e.Bucket < beforeBucket {
			delete(m.entries, fp)
			n++
		}
	}
	return n, nil
}
