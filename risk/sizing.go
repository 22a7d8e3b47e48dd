package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// QtyPrecision is the number of decimal places kept when a notional is
// converted into units.
const QtyPrecision int32 = 4

var ErrSizeTooSmall = errors.New("order size rounds to zero")

type SizeInputs struct {
	Price    decimal.Decimal
	Quantity decimal.NullDecimal
	Notional decimal.NullDecimal
}

type SizeResult struct {
	Quantity decimal.Decimal
	Notional decimal.Decimal
}

// Size prices an order at in.Price. A notional is turned into whole
// lots of 10^-QtyPrecision units, rounding down so the order never spends
// more than asked.
func Size(in SizeInputs) (SizeResult, error) {
	if !in.Price.IsPositive() {
		return SizeResult{}, fmt.Errorf("size: price must be positive, got %s", in.Price)
	}

	switch {
	case in.Quantity.Valid:
		q := in.Quantity.Decimal
		return SizeResult{Quantity: q, Notional: q.Mul(in.Price)}, nil
	case in.Notional.Valid:
		q := in.Notional.Decimal.Div(in.Price).Truncate(QtyPrecision)
		if !q.IsPositive() {
			return SizeResult{}, fmt.Errorf("%w: notional %s at %s", ErrSizeTooSmall, in.Notional.Decimal, in.Price)
		}
		return SizeResult{Quantity: q, Notional: q.Mul(in.Price)}, nil
	default:
		return SizeResult{}, errors.New("size: no quantity or notional")
	}
}
