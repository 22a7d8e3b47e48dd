package quote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Revetex/tradeguard/internal/clock"
)

var t0 = time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestStore(t *testing.T) {
	t.Parallel()

	clk := clock.NewManual(t0)
	s := NewStatic(clk, map[string]decimal.Decimal{"AAPL": d(190)})

	q, err := s.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(d(190)))
	assert.Equal(t, t0, q.Time)

	_, err = s.Quote(context.Background(), "MSFT")
	assert.ErrorIs(t, err, ErrNoPriceAvailable)

	clk.Advance(time.Minute)
	s.SetPrice("MSFT", d(410))
	q, err = s.Quote(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Minute), q.Time)
}

func TestCacheServesLastKnownWithinMaxAge(t *testing.T) {
	t.Parallel()

	clk := clock.NewManual(t0)
	var fail atomic.Bool
	src := SourceFunc(func(ctx context.Context, symbol string) (Quote, error) {
		if fail.Load() {
			return Quote{}, errors.New("upstream down")
		}
		return Quote{Symbol: symbol, Price: d(100), Time: clk.Now()}, nil
	})
	c := NewCache(src, clk, 30*time.Second)
	ctx := context.Background()

	_, err := c.Quote(ctx, "XYZ")
	require.NoError(t, err)

	fail.Store(true)
	clk.Advance(20 * time.Second)
	q, err := c.Quote(ctx, "XYZ")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(d(100)))

	clk.Advance(11 * time.Second)
	_, err = c.Quote(ctx, "XYZ")
	assert.ErrorIs(t, err, ErrPriceStale)

	_, err = c.Quote(ctx, "NEVER")
	assert.ErrorIs(t, err, ErrNoPriceAvailable)
}

func TestCacheRejectsStaleUpstream(t *testing.T) {
	t.Parallel()

	clk := clock.NewManual(t0)
	store := NewStore(clk)
	store.Set(Quote{Symbol: "OLD", Price: d(5), Time: t0.Add(-time.Hour)})

	c := NewCache(store, clk, time.Minute)
	_, err := c.Quote(context.Background(), "OLD")
	assert.ErrorIs(t, err, ErrPriceStale)

	unlimited := NewCache(store, clk, 0)
	q, err := unlimited.Quote(context.Background(), "OLD")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(d(5)))
}

func TestCacheRejectsNonPositive(t *testing.T) {
	t.Parallel()

	clk := clock.NewManual(t0)
	store := NewStatic(clk, map[string]decimal.Decimal{"ZERO": decimal.Zero})
	_, err := NewCache(store, clk, 0).Quote(context.Background(), "ZERO")
	assert.ErrorIs(t, err, ErrNoPriceAvailable)
}

func TestPrices(t *testing.T) {
	t.Parallel()

	clk := clock.NewManual(t0)
	store := NewStatic(clk, map[string]decimal.Decimal{"A": d(1), "B": d(2)})
	got := Prices(context.Background(), NewCache(store, clk, 0), []string{"A", "B", "C"})
	assert.Len(t, got, 2)
	assert.True(t, got["B"].Equal(d(2)))
}

func TestCacheCanceledContext(t *testing.T) {
	t.Parallel()

	clk := clock.NewManual(t0)
	calls := 0
	src := SourceFunc(func(ctx context.Context, symbol string) (Quote, error) {
		calls++
		if calls == 1 {
			return Quote{Price: d(10)}, nil
		}
		return Quote{}, ctx.Err()
	})
	c := NewCache(src, clk, 0)

	_, err := c.Quote(context.Background(), "XYZ")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Quote(ctx, "XYZ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPriceAvailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPQuote(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("symbol") {
		case "IBM":
			_, _ = w.Write([]byte(`{"Global Quote": {"01. symbol": "IBM", "05. price": "168.4200"}}`))
		case "ALT":
			_, _ = w.Write([]byte(`{"price": 12.5}`))
		case "LIMIT":
			_, _ = w.Write([]byte(`{"Note": "call frequency exceeded"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`boom`))
		}
	}))
	defer srv.Close()

	clk := clock.NewManual(t0)
	h := NewHTTP(HTTPConfig{BaseURL: srv.URL, APIKey: "secret", Timeout: time.Second, Clock: clk})
	ctx := context.Background()

	q, err := h.Quote(ctx, "IBM")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(d(168.42)))
	assert.Equal(t, t0, q.Time)

	q, err = h.Quote(ctx, "ALT")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(d(12.5)))

	_, err = h.Quote(ctx, "LIMIT")
	assert.ErrorIs(t, err, ErrNoPriceAvailable)

	_, err = h.Quote(ctx, "FAIL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
