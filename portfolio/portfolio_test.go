package portfolio

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Revetex/tradeguard/order"
)

var ts = time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func fill(sym string, side order.Side, qty, px float64) Fill {
	return Fill{Symbol: sym, Side: side, Quantity: d(qty), Price: d(px), Time: ts}
}

func assertDec(t *testing.T, want float64, got decimal.Decimal, msg ...any) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "want %v got %s %v", want, got, msg)
}

func TestBuyDebitsCash(t *testing.T) {
	t.Parallel()

	s := New(d(10000))
	a, err := s.Apply(fill("XYZ", order.Buy, 10, 50))
	require.NoError(t, err)

	assertDec(t, -500, a.CashDelta)
	assertDec(t, 9500, s.Cash())
	p, ok := s.Position("XYZ")
	require.True(t, ok)
	assertDec(t, 10, p.Quantity)
	assertDec(t, 50, p.AverageCost)
}

func TestWeightedAverageCost(t *testing.T) {
	t.Parallel()

	s := New(d(10000))
	_, err := s.Apply(fill("A", order.Buy, 10, 100))
	require.NoError(t, err)
	_, err = s.Apply(fill("A", order.Buy, 30, 60))
	require.NoError(t, err)

	p, _ := s.Position("A")
	assertDec(t, 40, p.Quantity)
	assertDec(t, 70, p.AverageCost)
}

func TestSellKeepsCostAndRealizes(t *testing.T) {
	t.Parallel()

	s := New(d(1000))
	_, err := s.Apply(fill("A", order.Buy, 4, 100))
	require.NoError(t, err)

	a, err := s.Apply(fill("A", order.Sell, 1, 130))
	require.NoError(t, err)
	assertDec(t, 130, a.CashDelta)
	assertDec(t, 30, a.Realized)

	p, _ := s.Position("A")
	assertDec(t, 3, p.Quantity)
	assertDec(t, 100, p.AverageCost)
	assertDec(t, 730, s.Cash())
}

func TestSellCapsToHeldAndCloses(t *testing.T) {
	t.Parallel()

	s := New(d(1000))
	_, _ = s.Apply(fill("A", order.Buy, 2, 100))

	a, err := s.Apply(fill("A", order.Sell, 5, 90))
	require.NoError(t, err)
	assertDec(t, 2, a.Quantity)
	assertDec(t, 180, a.CashDelta)

	_, ok := s.Position("A")
	assert.False(t, ok)
	assertDec(t, 980, s.Cash())
}

func TestRejectionsLeaveStateUntouched(t *testing.T) {
	t.Parallel()

	s := New(d(100))
	before := s.Export()

	_, err := s.Apply(fill("A", order.Buy, 2, 60))
	assert.True(t, errors.Is(err, ErrInsufficientCash))

	_, err = s.Apply(fill("A", order.Sell, 1, 60))
	assert.True(t, errors.Is(err, ErrNoPosition))

	_, err = s.Apply(fill("A", order.Buy, 0, 60))
	assert.Error(t, err)

	assert.Equal(t, before, s.Export())
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	s := New(d(1000))
	_, _ = s.Apply(fill("A", order.Buy, 5, 10))
	snap := s.Snapshot(ts, nil)

	_, _ = s.Apply(fill("A", order.Buy, 5, 20))
	assertDec(t, 5, snap.Positions["A"].Quantity)
	assertDec(t, 950, snap.Cash)
	assertDec(t, 1000, snap.Equity)
	assert.Equal(t, ts, snap.AsOf)
}

func TestSnapshotWithQuotes(t *testing.T) {
	t.Parallel()

	s := New(d(1000))
	_, _ = s.Apply(fill("A", order.Buy, 5, 10))
	_, _ = s.Apply(fill("B", order.Buy, 1, 100))

	snap := s.Snapshot(ts, map[string]decimal.Decimal{"A": d(12)})
	// 850 cash + 5*12 + 1*100
	assertDec(t, 1010, snap.Equity)
	assert.Equal(t, []string{"A", "B"}, snap.Symbols())
}

func TestExportRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := New(d(5000))
	_, _ = s.Apply(fill("A", order.Buy, 3, 33))
	_, _ = s.Apply(fill("B", order.Buy, 7, 7))
	_, _ = s.Apply(fill("A", order.Sell, 1, 40))

	r := Restore(s.Export())
	assert.Equal(t, s.Snapshot(ts, nil), r.Snapshot(ts, nil))
}

// Value is conserved: cash always equals starting cash plus the sum of
// cash deltas, for any sequence of fills.
func TestCashConservation(t *testing.T) {
	t.Parallel()

	start := d(10000)
	s := New(start)
	fills := []Fill{
		fill("A", order.Buy, 10, 50),
		fill("B", order.Buy, 3, 120.25),
		fill("A", order.Sell, 4, 55.5),
		fill("A", order.Buy, 2, 49),
		fill("B", order.Sell, 10, 118),
		fill("C", order.Sell, 1, 10),
	}
	sum := decimal.Zero
	for _, f := range fills {
		a, err := s.Apply(f)
		if err != nil {
			continue
		}
		sum = sum.Add(a.CashDelta)
	}
	assert.True(t, s.Cash().Equal(start.Add(sum)))

	snap := s.Snapshot(ts, nil)
	marked := snap.Cash
	for sym, p := range snap.Positions {
		marked = marked.Add(p.Quantity.Mul(snap.Marks[sym]))
	}
	assert.True(t, snap.Equity.Equal(marked))
}
