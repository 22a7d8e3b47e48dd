package risk

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		price        float64
		qty          *float64
		notional     *float64
		wantQty      string
		wantNotional string
	}{
		{"quantity", 50, ptr(10), nil, "10", "500"},
		{"notional exact", 100, nil, ptr(1000), "10", "1000"},
		{"notional truncates", 3, nil, ptr(100), "33.3333", "99.9999"},
		{"fractional", 0.5, ptr(2.5), nil, "2.5", "1.25"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := SizeInputs{Price: decimal.NewFromFloat(tt.price)}
			if tt.qty != nil {
				in.Quantity = decimal.NullDecimal{Decimal: decimal.NewFromFloat(*tt.qty), Valid: true}
			}
			if tt.notional != nil {
				in.Notional = decimal.NullDecimal{Decimal: decimal.NewFromFloat(*tt.notional), Valid: true}
			}
			got, err := Size(in)
			require.NoError(t, err)
			assert.True(t, got.Quantity.Equal(decimal.RequireFromString(tt.wantQty)), got.Quantity.String())
			assert.True(t, got.Notional.Equal(decimal.RequireFromString(tt.wantNotional)), got.Notional.String())
		})
	}
}

func TestSizeErrors(t *testing.T) {
	t.Parallel()

	_, err := Size(SizeInputs{Price: decimal.Zero, Quantity: decimal.NullDecimal{Decimal: decimal.NewFromInt(1), Valid: true}})
	assert.Error(t, err)

	_, err = Size(SizeInputs{Price: decimal.NewFromInt(1_000_000), Notional: decimal.NullDecimal{Decimal: decimal.NewFromInt(1), Valid: true}})
	assert.True(t, errors.Is(err, ErrSizeTooSmall))

	_, err = Size(SizeInputs{Price: decimal.NewFromInt(1)})
	assert.Error(t, err)
}

func ptr(f float64) *float64 { return &f }
