// Package router sends validated, sized orders to the paper simulator or to
// the registered live delegate, and tracks their lifecycle status.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Revetex/tradeguard/internal/clock"
	"github.com/Revetex/tradeguard/internal/logger"
	"github.com/Revetex/tradeguard/internal/trace"
	"github.com/Revetex/tradeguard/order"
)

// Reasons attached to non-filled outcomes.
const (
	ReasonNotMarketable    = "NotMarketable"
	ReasonNoLiveExecutor   = "NoLiveExecutor"
	ReasonDelegateRejected = "DelegateRejected"
	ReasonDelegateTimeout  = "DelegateTimeout"
	ReasonDelegatePanic    = "DelegatePanic"
	ReasonDelegateError    = "DelegateError"
	ReasonBadFill          = "BadFill"
)

type Config struct {
	// LiveTimeout bounds each delegate call. Zero leaves only the
	// caller's context in charge.
	LiveTimeout time.Duration
	Clock       clock.Clock
}

type Router struct {
	mu       sync.RWMutex
	delegate Delegate

	timeout time.Duration
	clk     clock.Clock
}

func New(cfg Config) *Router {
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	return &Router{delegate: Unset{}, timeout: cfg.LiveTimeout, clk: cfg.Clock}
}

// SetDelegate registers the live executor. nil restores Unset.
func (r *Router) SetDelegate(d Delegate) {
	if d == nil {
		d = Unset{}
	}
	r.mu.Lock()
	r.delegate = d
	r.mu.Unlock()
}

// HasDelegate reports whether a live executor is registered.
func (r *Router) HasDelegate() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !isUnset(r.delegate)
}

// Outcome is the terminal (or open) result of routing one order.
type Outcome struct {
	Status    Status
	Trail     Trail
	Fill      Fill
	Triggered bool
	Reason    string
	Err       error
}

func (o Outcome) String() string {
	if o.Reason != "" {
		return fmt.Sprintf("%s(%s)", o.Status, o.Reason)
	}
	return string(o.Status)
}

// Route executes o, whose Quantity must already be sized, against ref.
func (r *Router) Route(ctx context.Context, o order.Order, ref decimal.Decimal) Outcome {
	if o.Mode == order.Live {
		return r.live(ctx, o, ref)
	}
	return r.paper(o, ref)
}

func (r *Router) paper(o order.Order, last decimal.Decimal) Outcome {
	tr := newTrail()
	ev := Evaluate(o, last, false)
	if ev.Marketable {
		return Outcome{
			Status: Filled,
			Trail:  tr.mustTo(Filled),
			Fill:   Fill{Quantity: o.Quantity.Decimal, Price: ev.Price, Time: r.clk.Now()},
		}
	}
	if o.TimeInForce == order.IOC || o.TimeInForce == order.FOK {
		return Outcome{
			Status: Rejected,
			Trail:  tr.mustTo(Rejected),
			Reason: ReasonNotMarketable,
			Err:    fmt.Errorf("%s %s order not marketable at %s", o.TimeInForce, o.Type, last),
		}
	}
	return Outcome{Status: Open, Trail: tr.mustTo(Open), Triggered: ev.Triggered}
}

func (r *Router) live(ctx context.Context, o order.Order, ref decimal.Decimal) Outcome {
	r.mu.RLock()
	d := r.delegate
	r.mu.RUnlock()

	tr := newTrail()
	if isUnset(d) {
		return Outcome{
			Status: Rejected,
			Trail:  tr.mustTo(Rejected),
			Reason: ReasonNoLiveExecutor,
			Err:    ErrNoLiveExecutor,
		}
	}
	tr = tr.mustTo(Delegated)

	ctx, span := trace.StartSpan(ctx, "router.delegate",
		attribute.String("symbol", o.Symbol),
		attribute.String("side", string(o.Side)),
		attribute.String("type", string(o.Type)),
	)
	defer span.End()

	fill, err := r.call(ctx, d, o, ref)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoLiveExecutor):
		return Outcome{Status: Rejected, Trail: tr.mustTo(Rejected), Reason: ReasonNoLiveExecutor, Err: err}
	case errors.Is(err, ErrDelegateRejected):
		logger.Info(ctx, "live order rejected", "order_id", o.ID, "err", err.Error())
		return Outcome{Status: Rejected, Trail: tr.mustTo(Rejected), Reason: ReasonDelegateRejected, Err: err}
	default:
		reason := ReasonDelegateError
		var pe *panicError
		switch {
		case errors.As(err, &pe):
			reason = ReasonDelegatePanic
		case errors.Is(err, context.DeadlineExceeded):
			reason = ReasonDelegateTimeout
		}
		trace.Fail(ctx, err)
		logger.ErrorWithErr(ctx, "live delegate failed", err, "order_id", o.ID, "reason", reason)
		return Outcome{
			Status: DelegateError,
			Trail:  tr.mustTo(DelegateError),
			Reason: reason,
			Err:    fmt.Errorf("%w: %w", ErrDelegate, err),
		}
	}

	if fill.Quantity.IsZero() {
		fill.Quantity = o.Quantity.Decimal
	}
	if fill.Price.IsZero() {
		fill.Price = ref
	}
	if !fill.Quantity.IsPositive() || !fill.Price.IsPositive() {
		err := fmt.Errorf("%w: fill %s @ %s", ErrDelegate, fill.Quantity, fill.Price)
		return Outcome{Status: DelegateError, Trail: tr.mustTo(DelegateError), Reason: ReasonBadFill, Err: err}
	}
	if fill.Time.IsZero() {
		fill.Time = r.clk.Now()
	}
	return Outcome{Status: Filled, Trail: tr.mustTo(Filled), Fill: fill}
}

type panicError struct {
	v any
}

func (e *panicError) Error() string { return fmt.Sprintf("delegate panic: %v", e.v) }

type callResult struct {
	fill Fill
	err  error
}

// call runs the delegate in its own goroutine so that a delegate ignoring
// ctx still cannot hold the caller past the deadline.
func (r *Router) call(ctx context.Context, d Delegate, o order.Order, ref decimal.Decimal) (Fill, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- callResult{err: &panicError{v: v}}
			}
		}()
		f, err := d.Execute(ctx, o.Clone(), ref)
		done <- callResult{fill: f, err: err}
	}()

	select {
	case res := <-done:
		return res.fill, res.err
	case <-ctx.Done():
		return Fill{}, ctx.Err()
	}
}
