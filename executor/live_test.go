package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Revetex/tradeguard/order"
	"github.com/Revetex/tradeguard/router"
)

func liveConfig() Config {
	cfg := baseConfig()
	cfg.Mode = order.Live
	cfg.LiveTimeout = 50 * time.Millisecond
	cfg.Policy.MaxTradesPerDay = 5
	return cfg
}

func TestNoLiveExecutorRejectsEveryShape(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveConfig())
	ctx := context.Background()
	require.False(t, f.ex.HasLiveExecutor())

	results := []Result{
		f.ex.BuyMarket(ctx, "XYZ", d(1)),
		f.ex.SellMarket(ctx, "XYZ", d(1)),
		f.ex.BuyLimit(ctx, "XYZ", d(1), d(49)),
		f.ex.SellLimit(ctx, "XYZ", d(1), d(51)),
		f.ex.BuyStop(ctx, "XYZ", d(1), d(55)),
		f.ex.SellStop(ctx, "XYZ", d(1), d(45)),
		f.ex.BuyStopLimit(ctx, "XYZ", d(1), d(55), d(56)),
		f.ex.SellStopLimit(ctx, "XYZ", d(1), d(45), d(44)),
		f.ex.OnSignal(ctx, "XYZ", buy("1")),
	}
	for i, res := range results {
		assert.Equal(t, StatusRejected, res.Status, "shape %d", i)
		assert.Equal(t, router.ReasonNoLiveExecutor, res.Reason, "shape %d", i)
		assert.True(t, errors.Is(res.Err, router.ErrNoLiveExecutor), "shape %d", i)
	}

	assertDec(t, 10000, f.ex.Snapshot().Cash)
	assert.Equal(t, 0, f.ex.Guardrails().TradesToday)
	assert.Empty(t, f.ex.OpenOrders())
	assert.Len(t, f.activity(t), len(results))
}

func TestPaperOrderRequestingLiveIsStillGated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, baseConfig())
	res := f.ex.PlaceOrder(context.Background(), order.Order{
		Symbol:   "XYZ",
		Side:     order.Buy,
		Type:     order.Market,
		Quantity: order.Float(1),
		Mode:     order.Live,
	})
	assert.Equal(t, StatusRejected, res.Status)
	assert.Equal(t, router.ReasonNoLiveExecutor, res.Reason)
}

func TestLiveFillLeavesPaperAccountAlone(t *testing.T) {
	t.Parallel()

	f := newFixture(t, liveConfig())
	ctx := context.Background()

	var got order.Order
	f.ex.SetLiveExecutor(router.DelegateFunc(func(ctx context.Context, o order.Order, ref decimal.Decimal) (router.Fill, error) {
		got = o
		return router.Fill{Quantity: o.Quantity.Decimal, Price: ref.Add(d(0.01)), VenueID: "V-1"}, nil
	}))
	require.True(t, f.ex.HasLiveExecutor())

	res := f.ex.OnSignal(ctx, "XYZ", buy("1"))
	require.Equal(t, StatusFilled, res.Status, res.String())
	assertDec(t, 50.01, res.FillPrice)
	assertDec(t, 20, res.FillQty)
	assertDec(t, 20, got.Quantity.Decimal)
	assert.False(t, got.Notional.Valid)
	assert.Equal(t, "1000", got.Metadata["notional"])

	assertDec(t, 10000, f.ex.Snapshot().Cash)
	assert.Equal(t, 1, f.ex.Guardrails().TradesToday)

	recs := f.activity(t)
	require.Len(t, recs, 1)
	assert.Equal(t, order.Live, recs[0].Mode)
	assert.Equal(t, "filled", recs[0].Status)

	f.ex.ClearLiveExecutor()
	assert.Equal(t, StatusRejected, f.ex.OnSignal(ctx, "XYZ", buy("2")).Status)
}

func TestDelegateFailuresRollBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fn     router.DelegateFunc
		status Status
		reason string
	}{
		{
			name: "timeout",
			fn: func(ctx context.Context, o order.Order, ref decimal.Decimal) (router.Fill, error) {
				<-ctx.Done()
				return router.Fill{}, ctx.Err()
			},
			status: StatusDelegateError,
			reason: router.ReasonDelegateTimeout,
		},
		{
			name: "hang",
			fn: func(ctx context.Context, o order.Order, ref decimal.Decimal) (router.Fill, error) {
				time.Sleep(2 * time.Second)
				return router.Fill{}, nil
			},
			status: StatusDelegateError,
			reason: router.ReasonDelegateTimeout,
		},
		{
			name: "panic",
			fn: func(ctx context.Context, o order.Order, ref decimal.Decimal) (router.Fill, error) {
				panic("venue exploded")
			},
			status: StatusDelegateError,
			reason: router.ReasonDelegatePanic,
		},
		{
			name: "error",
			fn: func(ctx context.Context, o order.Order, ref decimal.Decimal) (router.Fill, error) {
				return router.Fill{}, errors.New("503")
			},
			status: StatusDelegateError,
			reason: router.ReasonDelegateError,
		},
		{
			name: "venue rejection",
			fn: func(ctx context.Context, o order.Order, ref decimal.Decimal) (router.Fill, error) {
				return router.Fill{}, fmt.Errorf("%w: symbol halted", router.ErrDelegateRejected)
			},
			status: StatusRejected,
			reason: router.ReasonDelegateRejected,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := liveConfig()
			cfg.Policy.MaxTradesPerDay = 1
			cfg.Policy.SymbolCooldown = time.Hour
			f := newFixture(t, cfg)
			ctx := context.Background()
			f.ex.SetLiveExecutor(tt.fn)

			res := f.ex.OnSignal(ctx, "XYZ", buy("1"))
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.reason, res.Reason)
			if tt.status == StatusDelegateError {
				assert.True(t, errors.Is(res.Err, router.ErrDelegate))
			}

			g := f.ex.Guardrails()
			assert.Equal(t, 0, g.TradesToday)
			assert.True(t, g.LastTrade.IsZero())
			assert.Empty(t, g.LastSymbolTrade)
			assert.Empty(t, g.SymbolQty)

			entries, err := f.ledger.Entries(ctx)
			require.NoError(t, err)
			assert.Empty(t, entries)

			recs := f.activity(t)
			require.Len(t, recs, 1)
			assert.Equal(t, string(tt.status), recs[0].Status)

			// The same signal can be retried once a working delegate is in place.
			f.ex.SetLiveExecutor(router.DelegateFunc(func(ctx context.Context, o order.Order, ref decimal.Decimal) (router.Fill, error) {
				return router.Fill{}, nil
			}))
			assert.Equal(t, StatusFilled, f.ex.OnSignal(ctx, "XYZ", buy("1")).Status)
		})
	}
}

func TestCallerContextBoundsDelegate(t *testing.T) {
	t.Parallel()

	cfg := liveConfig()
	cfg.LiveTimeout = 0
	f := newFixture(t, cfg)
	f.ex.SetLiveExecutor(router.DelegateFunc(func(ctx context.Context, o order.Order, ref decimal.Decimal) (router.Fill, error) {
		<-ctx.Done()
		return router.Fill{}, ctx.Err()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := f.ex.BuyMarket(ctx, "XYZ", d(1))
	assert.Equal(t, StatusDelegateError, res.Status)

	// The rejection is still recorded after the caller's context expired.
	assert.Len(t, f.activity(t), 1)
}
