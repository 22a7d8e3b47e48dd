package order

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base() Order {
	return Order{Symbol: "xyz", Side: Buy, Type: Market, Quantity: Float(10)}
}

func TestValidateNormalizes(t *testing.T) {
	t.Parallel()

	o := base()
	o.Symbol = "  xyz "
	o.Side = "BUY"
	o.Metadata = map[string]string{"k": "v"}

	got, err := Validate(o)
	require.NoError(t, err)
	assert.Equal(t, "XYZ", got.Symbol)
	assert.Equal(t, Buy, got.Side)
	assert.Equal(t, Day, got.TimeInForce)

	got.Metadata["k"] = "changed"
	assert.Equal(t, "v", o.Metadata["k"])
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		mut   func(*Order)
		field string
	}{
		{"empty symbol", func(o *Order) { o.Symbol = " " }, "symbol"},
		{"bad side", func(o *Order) { o.Side = "hold" }, "side"},
		{"bad type", func(o *Order) { o.Type = "trailing" }, "type"},
		{"bad tif", func(o *Order) { o.TimeInForce = "gtd" }, "time_in_force"},
		{"bad mode", func(o *Order) { o.Mode = "demo" }, "mode"},
		{"both sizes", func(o *Order) { o.Notional = Float(100) }, "quantity"},
		{"no size", func(o *Order) { o.Quantity = decimal.NullDecimal{} }, "quantity"},
		{"zero qty", func(o *Order) { o.Quantity = Float(0) }, "quantity"},
		{"negative notional", func(o *Order) {
			o.Quantity = decimal.NullDecimal{}
			o.Notional = Float(-5)
		}, "notional"},
		{"limit on market", func(o *Order) { o.LimitPrice = Float(1) }, "limit_price"},
		{"stop on limit", func(o *Order) {
			o.Type = Limit
			o.LimitPrice = Float(1)
			o.StopPrice = Float(1)
		}, "stop_price"},
		{"limit missing", func(o *Order) { o.Type = Limit }, "limit_price"},
		{"limit zero", func(o *Order) {
			o.Type = Limit
			o.LimitPrice = Float(0)
		}, "limit_price"},
		{"stop missing", func(o *Order) { o.Type = Stop }, "stop_price"},
		{"stop limit missing limit", func(o *Order) {
			o.Type = StopLimit
			o.StopPrice = Float(5)
		}, "limit_price"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := base()
			tt.mut(&o)
			_, err := Validate(o)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidOrder))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

// Every combination of size fields and price fields is accepted exactly
// when one size is set and positive and the price fields match the type.
func TestValidateAcceptanceGrid(t *testing.T) {
	t.Parallel()

	sizes := []decimal.NullDecimal{{}, Float(5), Float(0), Float(-1)}
	prices := []decimal.NullDecimal{{}, Float(10), Float(0)}
	types := []Type{Market, Limit, Stop, StopLimit}

	ok := func(d decimal.NullDecimal) bool { return d.Valid && d.Decimal.IsPositive() }
	priceOK := func(p decimal.NullDecimal, need bool) bool {
		if need {
			return ok(p)
		}
		return !p.Valid
	}

	for _, typ := range types {
		for _, q := range sizes {
			for _, n := range sizes {
				for _, lp := range prices {
					for _, sp := range prices {
						o := Order{Symbol: "A", Side: Sell, Type: typ, Quantity: q, Notional: n, LimitPrice: lp, StopPrice: sp}
						want := (q.Valid != n.Valid) && (ok(q) || ok(n)) &&
							priceOK(lp, typ.NeedsLimit()) && priceOK(sp, typ.NeedsStop())

						_, err := Validate(o)
						assert.Equal(t, want, err == nil, "type=%s q=%v n=%v lp=%v sp=%v err=%v", typ, q, n, lp, sp, err)
					}
				}
			}
		}
	}
}

func TestSize(t *testing.T) {
	t.Parallel()

	q, notional := Order{Quantity: Float(3)}.Size()
	assert.False(t, notional)
	assert.True(t, q.Equal(decimal.NewFromInt(3)))

	n, notional := Order{Notional: Float(250)}.Size()
	assert.True(t, notional)
	assert.True(t, n.Equal(decimal.NewFromInt(250)))
}
