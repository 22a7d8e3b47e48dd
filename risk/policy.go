package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy holds the guardrail thresholds. A zero value disables that check.
type Policy struct {
	MaxTradesPerDay int
	GlobalCooldown  time.Duration
	SymbolCooldown  time.Duration

	// Cumulative per-symbol size traded today, buys and sells alike.
	MaxQtyPerSymbol      decimal.Decimal
	MaxNotionalPerSymbol decimal.Decimal

	// Location fixes the trading-day boundary. Nil means UTC.
	Location *time.Location
}

// TradeIntent is a priced order as the guardrails see it.
type TradeIntent struct {
	Symbol   string
	Quantity decimal.Decimal
	Notional decimal.Decimal
}
