package order

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

type Type string

const (
	Market    Type = "market"
	Limit     Type = "limit"
	Stop      Type = "stop"
	StopLimit Type = "stop_limit"
)

// NeedsLimit reports whether orders of this type carry a limit price.
func (t Type) NeedsLimit() bool { return t == Limit || t == StopLimit }

// NeedsStop reports whether orders of this type carry a stop price.
func (t Type) NeedsStop() bool { return t == Stop || t == StopLimit }

type TimeInForce string

const (
	Day TimeInForce = "day"
	GTC TimeInForce = "gtc"
	IOC TimeInForce = "ioc"
	FOK TimeInForce = "fok"
)

// Mode selects the execution venue.
type Mode string

const (
	Paper Mode = "paper"
	Live  Mode = "live"
)

// Order is a trade intent. Exactly one of Quantity and Notional is set.
type Order struct {
	ID          string
	Symbol      string
	Side        Side
	Type        Type
	Quantity    decimal.NullDecimal
	Notional    decimal.NullDecimal
	LimitPrice  decimal.NullDecimal
	StopPrice   decimal.NullDecimal
	TimeInForce TimeInForce
	Mode        Mode // empty means the executor's default
	Metadata    map[string]string
}

// Some wraps d as a set optional value.
func Some(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Float wraps f as a set optional value.
func Float(f float64) decimal.NullDecimal {
	return Some(decimal.NewFromFloat(f))
}

// Size returns the order magnitude and whether it is denominated in
// currency (notional) rather than units.
func (o Order) Size() (decimal.Decimal, bool) {
	if o.Notional.Valid {
		return o.Notional.Decimal, true
	}
	return o.Quantity.Decimal, false
}

// Clone copies o, including its metadata map.
func (o Order) Clone() Order {
	c := o
	if o.Metadata != nil {
		c.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
