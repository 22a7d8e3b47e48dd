package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidOrder is wrapped by every ValidationError.
var ErrInvalidOrder = errors.New("invalid order")

// ValidationError names the offending field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order: %s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidOrder }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks the shape of o and returns a normalized copy: symbol
// upper-cased, side/type/tif lower-cased, tif defaulted to day. It depends on
// nothing but its argument.
func Validate(o Order) (Order, error) {
	v := o.Clone()
	v.Symbol = NormalizeSymbol(o.Symbol)
	v.Side = Side(strings.ToLower(strings.TrimSpace(string(o.Side))))
	v.Type = Type(strings.ToLower(strings.TrimSpace(string(o.Type))))
	v.TimeInForce = TimeInForce(strings.ToLower(strings.TrimSpace(string(o.TimeInForce))))
	v.Mode = Mode(strings.ToLower(strings.TrimSpace(string(o.Mode))))
	if v.TimeInForce == "" {
		v.TimeInForce = Day
	}

	if v.Symbol == "" {
		return Order{}, invalid("symbol", "must not be empty")
	}
	switch v.Side {
	case Buy, Sell:
	default:
		return Order{}, invalid("side", "unknown side %q", o.Side)
	}
	switch v.Type {
	case Market, Limit, Stop, StopLimit:
	default:
		return Order{}, invalid("type", "unknown order type %q", o.Type)
	}
	switch v.TimeInForce {
	case Day, GTC, IOC, FOK:
	default:
		return Order{}, invalid("time_in_force", "unknown time in force %q", o.TimeInForce)
	}
	switch v.Mode {
	case "", Paper, Live:
	default:
		return Order{}, invalid("mode", "unknown mode %q", o.Mode)
	}

	switch {
	case v.Quantity.Valid && v.Notional.Valid:
		return Order{}, invalid("quantity", "quantity and notional are mutually exclusive")
	case !v.Quantity.Valid && !v.Notional.Valid:
		return Order{}, invalid("quantity", "one of quantity or notional is required")
	case v.Quantity.Valid && !v.Quantity.Decimal.IsPositive():
		return Order{}, invalid("quantity", "must be positive, got %s", v.Quantity.Decimal)
	case v.Notional.Valid && !v.Notional.Decimal.IsPositive():
		return Order{}, invalid("notional", "must be positive, got %s", v.Notional.Decimal)
	}

	if err := checkPrice("limit_price", v.LimitPrice, v.Type.NeedsLimit(), v.Type); err != nil {
		return Order{}, err
	}
	if err := checkPrice("stop_price", v.StopPrice, v.Type.NeedsStop(), v.Type); err != nil {
		return Order{}, err
	}
	return v, nil
}

func checkPrice(field string, p decimal.NullDecimal, required bool, t Type) error {
	if !required {
		if p.Valid {
			return invalid(field, "not allowed for %s orders", t)
		}
		return nil
	}
	if !p.Valid {
		return invalid(field, "required for %s orders", t)
	}
	if !p.Decimal.IsPositive() {
		return invalid(field, "must be positive, got %s", p.Decimal)
	}
	return nil
}
