package quote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Revetex/tradeguard/internal/clock"
	"github.com/Revetex/tradeguard/internal/logger"
)

// Cache fronts a Source. A fresh upstream quote is remembered; when the
// upstream fails, the last known quote is served if it is younger than
// MaxAge. A zero MaxAge accepts any age.
type Cache struct {
	src    Source
	clk    clock.Clock
	maxAge time.Duration

	mu   sync.RWMutex
	last map[string]Quote
}

func NewCache(src Source, clk clock.Clock, maxAge time.Duration) *Cache {
	if clk == nil {
		clk = clock.System{}
	}
	return &Cache{src: src, clk: clk, maxAge: maxAge, last: make(map[string]Quote)}
}

func (c *Cache) Quote(ctx context.Context, symbol string) (Quote, error) {
	q, err := c.src.Quote(ctx, symbol)
	if err == nil && !q.Price.IsPositive() {
		err = fmt.Errorf("%w: %s quoted at %s", ErrNoPriceAvailable, symbol, q.Price)
	}
	if err == nil {
		if q.Symbol == "" {
			q.Symbol = symbol
		}
		if q.Time.IsZero() {
			q.Time = c.clk.Now()
		}
		if c.stale(q) {
			return Quote{}, fmt.Errorf("%w: %s quoted at %s", ErrPriceStale, symbol, q.Time.Format(time.RFC3339))
		}
		c.mu.Lock()
		c.last[symbol] = q
		c.mu.Unlock()
		return q, nil
	}

	if ctx.Err() != nil {
		if errors.Is(err, ErrNoPriceAvailable) {
			return Quote{}, err
		}
		return Quote{}, fmt.Errorf("%w: %s: %w", ErrNoPriceAvailable, symbol, err)
	}

	c.mu.RLock()
	prev, ok := c.last[symbol]
	c.mu.RUnlock()
	if !ok {
		if errors.Is(err, ErrNoPriceAvailable) {
			return Quote{}, err
		}
		return Quote{}, fmt.Errorf("%w: %s: %v", ErrNoPriceAvailable, symbol, err)
	}
	if c.stale(prev) {
		return Quote{}, fmt.Errorf("%w: %s last quoted at %s", ErrPriceStale, symbol, prev.Time.Format(time.RFC3339))
	}
	logger.Debug(ctx, "serving cached quote", "symbol", symbol, "age", c.clk.Now().Sub(prev.Time).String(), "err", err.Error())
	return prev, nil
}

func (c *Cache) stale(q Quote) bool {
	return c.maxAge > 0 && c.clk.Now().Sub(q.Time) > c.maxAge
}
