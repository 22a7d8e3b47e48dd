// Package replay drives an executor from a scripted CSV of price ticks and
// trading events, on a manual clock, so guardrail and idempotency behavior
// can be reproduced exactly.
package replay

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/executor"
	"github.com/Revetex/tradeguard/internal/clock"
	"github.com/Revetex/tradeguard/order"
	"github.com/Revetex/tradeguard/quote"
)

// Options controls how replay behaves.
type Options struct {
	// If true: set the price and sweep resting orders first, then apply the
	// event. Most scripts want this so an event sees its own row's price.
	TickThenEvent bool
}

// Step is the outcome of one event row.
type Step struct {
	Line   int // line in the CSV file
	Time   time.Time
	Symbol string
	Event  string
	Result executor.Result
	// Swept holds resting orders filled or expired on this row's tick.
	Swept []executor.Result
}

// Driver owns the clock and price store the executor reads from.
type Driver struct {
	ex     *executor.Executor
	prices *quote.Store
	clk    *clock.Manual
	opts   Options
}

func New(ex *executor.Executor, prices *quote.Store, clk *clock.Manual, opts Options) *Driver {
	return &Driver{ex: ex, prices: prices, clk: clk, opts: opts}
}

// CSV replays rows from path.
//
// CSV formats supported:
//
//  1. Ticks:
//     time,symbol,price
//
//  2. Ticks + events:
//     time,symbol,price,event,arg1,arg2,arg3
//
// Events (case-insensitive):
//
//	SIGNAL:      arg1=buy|sell  arg2=signal id  arg3=quantity (optional)
//	BUY, SELL:   arg1=quantity
//	BUY_LIMIT, SELL_LIMIT:  arg1=quantity  arg2=limit
//	BUY_STOP, SELL_STOP:    arg1=quantity  arg2=stop
//	CANCEL:      arg1=order id
//	ENABLE, DISABLE
//
// A row with an empty price column only advances the clock.
func (d *Driver) CSV(ctx context.Context, path string) ([]Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return d.Read(ctx, f)
}

// Read replays rows from r.
func (d *Driver) Read(ctx context.Context, r io.Reader) ([]Step, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	var steps []Step
	for first := true; ; first = false {
		row, err := cr.Read()
		if err == io.EOF {
			return steps, nil
		}
		if err != nil {
			return steps, err
		}
		line, _ := cr.FieldPos(0)
		if len(row) == 0 || (first && strings.EqualFold(strings.TrimSpace(row[0]), "time")) {
			continue
		}
		step, err := d.row(ctx, line, row)
		if err != nil {
			return steps, fmt.Errorf("line %d: %w", line, err)
		}
		if step.Event != "" || len(step.Swept) > 0 {
			steps = append(steps, step)
		}
	}
}

func (d *Driver) row(ctx context.Context, line int, row []string) (Step, error) {
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}
	if len(row) < 2 {
		return Step{}, fmt.Errorf("bad row (need at least time,symbol): %v", row)
	}

	t, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return Step{}, fmt.Errorf("bad time %q: %w", row[0], err)
	}
	if t.Before(d.clk.Now()) {
		return Step{}, fmt.Errorf("time %s goes backwards", row[0])
	}
	d.clk.Set(t)

	step := Step{Line: line, Time: t, Symbol: order.NormalizeSymbol(row[1])}
	if len(row) >= 4 {
		step.Event = strings.ToUpper(row[3])
	}
	var args []string
	if len(row) >= 5 {
		args = row[4:]
	}

	tick := func() error {
		if len(row) < 3 || row[2] == "" {
			return nil
		}
		px, err := decimal.NewFromString(row[2])
		if err != nil {
			return fmt.Errorf("bad price %q: %w", row[2], err)
		}
		d.prices.SetPrice(step.Symbol, px)
		step.Swept = d.ex.SweepOpenOrders(ctx)
		return nil
	}

	if d.opts.TickThenEvent {
		if err := tick(); err != nil {
			return step, err
		}
	}
	if step.Event != "" {
		res, err := d.event(ctx, step.Symbol, step.Event, args)
		if err != nil {
			return step, fmt.Errorf("%s: %w", step.Event, err)
		}
		step.Result = res
	}
	if !d.opts.TickThenEvent {
		if err := tick(); err != nil {
			return step, err
		}
	}
	return step, nil
}

func (d *Driver) event(ctx context.Context, symbol, event string, args []string) (executor.Result, error) {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch event {
	case "SIGNAL":
		if arg(0) == "" || arg(1) == "" {
			return executor.Result{}, fmt.Errorf("need arg1=kind arg2=signal id")
		}
		sig := executor.Signal{Kind: arg(0), ID: arg(1)}
		if arg(2) != "" {
			q, err := decimal.NewFromString(arg(2))
			if err != nil {
				return executor.Result{}, fmt.Errorf("bad quantity %q: %w", arg(2), err)
			}
			sig.Quantity = order.Some(q)
		}
		return d.ex.OnSignal(ctx, symbol, sig), nil

	case "BUY", "SELL":
		qty, err := parseDecimals(arg(0))
		if err != nil {
			return executor.Result{}, err
		}
		if event == "BUY" {
			return d.ex.BuyMarket(ctx, symbol, qty[0]), nil
		}
		return d.ex.SellMarket(ctx, symbol, qty[0]), nil

	case "BUY_LIMIT", "SELL_LIMIT", "BUY_STOP", "SELL_STOP":
		v, err := parseDecimals(arg(0), arg(1))
		if err != nil {
			return executor.Result{}, err
		}
		switch event {
		case "BUY_LIMIT":
			return d.ex.BuyLimit(ctx, symbol, v[0], v[1]), nil
		case "SELL_LIMIT":
			return d.ex.SellLimit(ctx, symbol, v[0], v[1]), nil
		case "BUY_STOP":
			return d.ex.BuyStop(ctx, symbol, v[0], v[1]), nil
		default:
			return d.ex.SellStop(ctx, symbol, v[0], v[1]), nil
		}

	case "CANCEL":
		if arg(0) == "" {
			return executor.Result{}, fmt.Errorf("missing order id")
		}
		if err := d.ex.CancelOrder(ctx, arg(0)); err != nil {
			return executor.Result{OrderID: arg(0), Status: executor.StatusRejected, Err: err}, nil
		}
		return executor.Result{OrderID: arg(0), Status: executor.StatusCanceled, Reason: executor.ReasonUserCanceled}, nil

	case "ENABLE", "DISABLE":
		d.ex.SetEnabled(event == "ENABLE")
		return executor.Result{}, nil

	default:
		return executor.Result{}, fmt.Errorf("unknown event %q", event)
	}
}

func parseDecimals(vals ...string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(vals))
	for i, s := range vals {
		if s == "" {
			return nil, fmt.Errorf("missing arg%d", i+1)
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("bad arg%d %q: %w", i+1, s, err)
		}
		out[i] = v
	}
	return out, nil
}
