package quote

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/internal/clock"
)

// Store is a settable in-process Source. Prices set without a time are
// stamped with the clock on every read, so they never go stale.
type Store struct {
	mu     sync.RWMutex
	prices map[string]Quote
	clk    clock.Clock
}

func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.System{}
	}
	return &Store{prices: make(map[string]Quote), clk: clk}
}

// NewStatic returns a Store preloaded with fixed prices.
func NewStatic(clk clock.Clock, prices map[string]decimal.Decimal) *Store {
	s := NewStore(clk)
	for sym, px := range prices {
		s.Set(Quote{Symbol: sym, Price: px})
	}
	return s
}

func (s *Store) Set(q Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[q.Symbol] = q
}

// SetPrice records px for symbol at the current clock time.
func (s *Store) SetPrice(symbol string, px decimal.Decimal) {
	s.Set(Quote{Symbol: symbol, Price: px, Time: s.clk.Now()})
}

func (s *Store) Quote(ctx context.Context, symbol string) (Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.prices[symbol]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrNoPriceAvailable, symbol)
	}
	if q.Time.IsZero() {
		q.Time = s.clk.Now()
	}
	return q, nil
}
