package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Revetex/tradeguard/executor"
	"github.com/Revetex/tradeguard/internal/clock"
	"github.com/Revetex/tradeguard/quote"
	"github.com/Revetex/tradeguard/risk"
)

var t0 = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func newDriver(t *testing.T, opts Options) (*Driver, *executor.Executor) {
	t.Helper()

	clk := clock.NewManual(t0)
	prices := quote.NewStore(clk)
	ex, err := executor.New(context.Background(), executor.Config{
		AccountID:    "replay",
		StartingCash: decimal.NewFromInt(10000),
		Enabled:      true,
		BaseSize:     decimal.NewFromInt(1000),
		Policy: risk.Policy{
			MaxTradesPerDay: 2,
			SymbolCooldown:  10 * time.Minute,
		},
	}, executor.Deps{Quotes: prices, Clock: clk})
	require.NoError(t, err)
	return New(ex, prices, clk, opts), ex
}

func TestReplayGuardrailScenario(t *testing.T) {
	t.Parallel()

	// Scripted scenario:
	// - a signal, its duplicate, and a second signal inside the symbol cooldown
	// - a second symbol uses up the daily cap
	// - a resting limit fills on a later tick
	// - the first signal id is accepted again the next day
	script := `time,symbol,price,event,arg1,arg2,arg3
2024-06-03T14:00:00Z,XYZ,50,SIGNAL,buy,s1
2024-06-03T14:01:00Z,XYZ,51,SIGNAL,buy,s1
2024-06-03T14:02:00Z,XYZ,52,SIGNAL,buy,s2
2024-06-03T14:03:00Z,AAA,10,SIGNAL,buy,a1
# cap reached
2024-06-03T14:20:00Z,XYZ,49,SIGNAL,sell,s3
2024-06-03T14:21:00Z,XYZ,49,BUY_LIMIT,1,45
2024-06-03T14:22:00Z,XYZ,44
2024-06-04T14:00:00Z,XYZ,50,SIGNAL,buy,s1
`
	path := filepath.Join(t.TempDir(), "script.csv")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	d, ex := newDriver(t, Options{TickThenEvent: true})
	steps, err := d.CSV(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, steps, 8)

	want := []struct {
		status executor.Status
		reason string
	}{
		{executor.StatusFilled, ""},
		{executor.StatusDuplicate, executor.ReasonDuplicate},
		{executor.StatusDenied, string(risk.SymbolCooldownActive)},
		{executor.StatusFilled, ""},
		{executor.StatusDenied, string(risk.DailyCapExceeded)},
		{executor.StatusOpen, ""},
	}
	for i, w := range want {
		assert.Equal(t, w.status, steps[i].Result.Status, "step %d (line %d)", i, steps[i].Line)
		assert.Equal(t, w.reason, steps[i].Result.Reason, "step %d", i)
	}

	sweep := steps[6]
	assert.Empty(t, sweep.Event)
	require.Len(t, sweep.Swept, 1)
	assert.Equal(t, executor.StatusFilled, sweep.Swept[0].Status)
	assert.True(t, sweep.Swept[0].FillPrice.Equal(decimal.NewFromInt(44)))

	assert.Equal(t, executor.StatusFilled, steps[7].Result.Status)
	assert.Equal(t, 10, steps[7].Line)

	assert.True(t, ex.Snapshot().Cash.Equal(decimal.NewFromInt(6956)), ex.Snapshot().Cash.String())
	assert.Equal(t, 1, ex.Guardrails().TradesToday)
}

func TestReplayEventBeforeTick(t *testing.T) {
	t.Parallel()

	d, _ := newDriver(t, Options{})
	script := "2024-06-03T14:00:00Z,XYZ,50\n2024-06-03T14:01:00Z,XYZ,60,BUY,1\n"
	steps, err := d.Read(context.Background(), strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.True(t, steps[0].Result.FillPrice.Equal(decimal.NewFromInt(50)), "filled at the previous tick")
}

func TestReplayCancelAndToggle(t *testing.T) {
	t.Parallel()

	d, ex := newDriver(t, Options{TickThenEvent: true})
	ctx := context.Background()

	steps, err := d.Read(ctx, strings.NewReader("2024-06-03T14:00:00Z,XYZ,50,BUY_STOP,1,55\n"))
	require.NoError(t, err)
	require.Equal(t, executor.StatusOpen, steps[0].Result.Status)
	id := steps[0].Result.OrderID

	script := "2024-06-03T14:01:00Z,XYZ,,CANCEL," + id + "\n" +
		"2024-06-03T14:02:00Z,XYZ,,CANCEL," + id + "\n" +
		"2024-06-03T14:03:00Z,XYZ,,DISABLE\n" +
		"2024-06-03T14:04:00Z,XYZ,,SIGNAL,buy,x\n"
	steps, err = d.Read(ctx, strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, steps, 4)
	assert.Equal(t, executor.StatusCanceled, steps[0].Result.Status)
	assert.Equal(t, executor.StatusRejected, steps[1].Result.Status)
	assert.Error(t, steps[1].Result.Err)
	assert.Equal(t, executor.StatusIgnored, steps[3].Result.Status)
	assert.False(t, ex.Enabled())
}

func TestReplayErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script string
		errMsg string
	}{
		{"bad time", "yesterday,XYZ,50\n", "bad time"},
		{"bad price", "2024-06-03T14:00:00Z,XYZ,fifty\n", "bad price"},
		{"unknown event", "2024-06-03T14:00:00Z,XYZ,50,SHORT,1\n", "unknown event"},
		{"missing args", "2024-06-03T14:00:00Z,XYZ,50,BUY_LIMIT,1\n", "missing arg2"},
		{"signal without id", "2024-06-03T14:00:00Z,XYZ,50,SIGNAL,buy\n", "signal id"},
		{"backwards", "2024-06-03T14:00:00Z,XYZ,50\n2024-06-03T13:00:00Z,XYZ,50\n", "line 2: time"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d, _ := newDriver(t, Options{TickThenEvent: true})
			_, err := d.Read(context.Background(), strings.NewReader(tt.script))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
