// Package quote supplies reference prices for paper fills, guardrail sizing
// and live delegation.
package quote

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/internal/logger"
)

var (
	ErrNoPriceAvailable = errors.New("no price available")
	ErrPriceStale       = errors.New("price is stale")
)

type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Time   time.Time       `json:"time"`
}

// Source returns the latest price for a symbol.
type Source interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context, symbol string) (Quote, error)

func (f SourceFunc) Quote(ctx context.Context, symbol string) (Quote, error) {
	return f(ctx, symbol)
}

// Prices quotes each symbol from src, skipping the ones that fail.
func Prices(ctx context.Context, src Source, symbols []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(symbols))
	for _, sym := range symbols {
		q, err := src.Quote(ctx, sym)
		if err != nil {
			logger.Warn(ctx, "quote unavailable", "symbol", sym, "err", err.Error())
			continue
		}
		out[sym] = q.Price
	}
	return out
}
