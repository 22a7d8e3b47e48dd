package executor

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Revetex/tradeguard/internal/logger"
	"github.com/Revetex/tradeguard/internal/trace"
	"github.com/Revetex/tradeguard/journal"
	"github.com/Revetex/tradeguard/ledger"
	"github.com/Revetex/tradeguard/order"
	"github.com/Revetex/tradeguard/pkg/id"
	"github.com/Revetex/tradeguard/portfolio"
	"github.com/Revetex/tradeguard/risk"
	"github.com/Revetex/tradeguard/router"
)

// attempt carries one order through the pipeline.
type attempt struct {
	order    order.Order
	source   journal.Source
	ref      decimal.Decimal
	notional decimal.Decimal
	fp       string
	rsv      *risk.Reservation
}

// PlaceOrder validates, routes and settles o. Manual orders are not subject
// to guardrails or the signal ledger.
func (e *Executor) PlaceOrder(ctx context.Context, o order.Order) Result {
	ctx, span := trace.StartSpan(ctx, "executor.PlaceOrder",
		attribute.String("symbol", o.Symbol),
		attribute.String("side", string(o.Side)),
		attribute.String("type", string(o.Type)),
	)
	defer span.End()

	a, res, ok := e.prepare(ctx, o, journal.SourceManual, "")
	if !ok {
		return res
	}

	e.mu.Lock()
	if !e.heldLocked(a) {
		res := e.rejectLocked(ctx, a, StatusRejected, ReasonNoPosition, portfolio.ErrNoPosition)
		e.mu.Unlock()
		return res
	}
	e.mu.Unlock()
	return e.finish(ctx, a)
}

// prepare validates, prices and sizes o. On failure the rejection has
// already been recorded and rolled back. Position checks come later, after
// any guardrail reservation.
func (e *Executor) prepare(ctx context.Context, o order.Order, src journal.Source, fp string) (*attempt, Result, bool) {
	o = o.Clone()
	if o.ID == "" {
		o.ID = id.NewAt(e.clk.Now())
	}
	if o.Mode == "" {
		o.Mode = e.cfg.Mode
	}
	a := &attempt{order: o, source: src, fp: fp}

	v, err := order.Validate(o)
	if err != nil {
		return nil, e.reject(ctx, a, StatusRejected, "", err), false
	}
	a.order = v

	q, err := e.quotes.Quote(ctx, v.Symbol)
	if err != nil {
		return nil, e.reject(ctx, a, StatusRejected, "", err), false
	}
	a.ref = q.Price

	at := q.Price
	if v.Type.NeedsLimit() {
		at = v.LimitPrice.Decimal
	}
	sz, err := risk.Size(risk.SizeInputs{Price: at, Quantity: v.Quantity, Notional: v.Notional})
	if err != nil {
		return nil, e.reject(ctx, a, StatusRejected, "", err), false
	}
	if v.Notional.Valid {
		if v.Metadata == nil {
			v.Metadata = map[string]string{}
		}
		v.Metadata["notional"] = v.Notional.Decimal.String()
		v.Notional = decimal.NullDecimal{}
		v.Quantity = order.Some(sz.Quantity)
	}
	a.order = v
	a.notional = sz.Notional
	return a, Result{}, true
}

// heldLocked reports whether a can be routed against the current
// positions: a paper sell needs a position to sell from.
func (e *Executor) heldLocked(a *attempt) bool {
	if a.order.Mode != order.Paper || a.order.Side != order.Sell {
		return true
	}
	_, ok := e.port.Position(a.order.Symbol)
	return ok
}

// finish routes a without the lock, then settles or rolls back under it.
func (e *Executor) finish(ctx context.Context, a *attempt) Result {
	out := e.router.Route(ctx, a.order, a.ref)

	e.mu.Lock()
	defer e.mu.Unlock()

	switch out.Status {
	case router.Filled:
		return e.settleLocked(ctx, a, out.Fill)

	case router.Open:
		now := e.clk.Now()
		e.book[a.order.ID] = &OpenOrder{
			Order:     a.order,
			Source:    a.source,
			Placed:    now,
			Day:       e.day(now),
			Triggered: out.Triggered,
			Reference: a.ref,
		}
		e.statuses[a.order.ID] = StatusOpen
		e.recordLocked(ctx, a, StatusOpen, decimal.Zero, decimal.Zero, decimal.Zero, "")
		e.persistLocked(ctx)
		logger.Info(ctx, "order resting", "order_id", a.order.ID, "symbol", a.order.Symbol, "type", string(a.order.Type))
		return Result{OrderID: a.order.ID, Status: StatusOpen}

	default:
		return e.rejectLocked(ctx, a, fromRouter(out.Status), out.Reason, out.Err)
	}
}

// settleLocked applies a fill. Paper fills move the paper portfolio; live
// fills are recorded only.
func (e *Executor) settleLocked(ctx context.Context, a *attempt, f router.Fill) Result {
	qty, px, cash := f.Quantity, f.Price, decimal.Zero
	if a.order.Mode == order.Paper {
		applied, err := e.port.Apply(portfolio.Fill{
			Symbol:   a.order.Symbol,
			Side:     a.order.Side,
			Quantity: f.Quantity,
			Price:    f.Price,
			Time:     f.Time,
		})
		if err != nil {
			return e.rejectLocked(ctx, a, StatusRejected, "", err)
		}
		qty, px, cash = applied.Quantity, applied.Price, applied.CashDelta
	}

	if a.fp != "" {
		if err := e.ledger.Resolve(context.WithoutCancel(ctx), a.fp, ledger.Filled, a.order.ID); err != nil {
			logger.ErrorWithErr(ctx, "resolve ledger entry", err, "fingerprint", a.fp)
		}
	}
	e.statuses[a.order.ID] = StatusFilled
	e.recordLocked(ctx, a, StatusFilled, qty, px, cash, "")
	e.persistLocked(ctx)

	logger.Info(ctx, "order filled",
		"order_id", a.order.ID,
		"symbol", a.order.Symbol,
		"side", string(a.order.Side),
		"qty", qty.String(),
		"price", px.String(),
		"mode", string(a.order.Mode),
		"source", string(a.source),
	)
	return Result{OrderID: a.order.ID, Status: StatusFilled, FillQty: qty, FillPrice: px}
}

func (e *Executor) reject(ctx context.Context, a *attempt, status Status, reason string, err error) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rejectLocked(ctx, a, status, reason, err)
}

// rejectLocked undoes whatever a reserved, records the rejection and
// reports it.
func (e *Executor) rejectLocked(ctx context.Context, a *attempt, status Status, reason string, err error) Result {
	if reason == "" {
		reason = reasonFor(err)
	}
	e.rollbackLocked(ctx, a)
	e.statuses[a.order.ID] = status
	e.recordLocked(ctx, a, status, decimal.Zero, decimal.Zero, decimal.Zero, reason)
	e.persistLocked(ctx)

	kv := []any{"order_id", a.order.ID, "symbol", a.order.Symbol, "status", string(status), "reason", reason}
	if err != nil {
		kv = append(kv, "err", err.Error())
	}
	logger.Warn(ctx, "order not executed", kv...)
	return Result{OrderID: a.order.ID, Status: status, Reason: reason, Err: err}
}

func (e *Executor) rollbackLocked(ctx context.Context, a *attempt) {
	if a.rsv != nil {
		e.guard.Release(*a.rsv)
		a.rsv = nil
	}
	if a.fp != "" {
		if err := e.ledger.Release(context.WithoutCancel(ctx), a.fp); err != nil {
			logger.ErrorWithErr(ctx, "release ledger entry", err, "fingerprint", a.fp)
		}
	}
}

func (e *Executor) recordLocked(ctx context.Context, a *attempt, status Status, qty, px, cash decimal.Decimal, reason string) {
	now := e.clk.Now()
	rec := journal.Activity{
		ID:          id.NewAt(now),
		Time:        now,
		OrderID:     a.order.ID,
		Symbol:      a.order.Symbol,
		Side:        a.order.Side,
		Type:        a.order.Type,
		Source:      a.source,
		Mode:        a.order.Mode,
		Status:      string(status),
		FillQty:     qty,
		FillPrice:   px,
		CashDelta:   cash,
		Reason:      reason,
		Fingerprint: a.fp,
	}
	if err := e.journal.Append(context.WithoutCancel(ctx), rec); err != nil {
		logger.ErrorWithErr(ctx, "append activity", err, "order_id", a.order.ID)
	}
}

func (e *Executor) submit(ctx context.Context, symbol string, side order.Side, typ order.Type, qty decimal.Decimal, limit, stop decimal.NullDecimal) Result {
	return e.PlaceOrder(ctx, order.Order{
		Symbol:      symbol,
		Side:        side,
		Type:        typ,
		Quantity:    order.Some(qty),
		LimitPrice:  limit,
		StopPrice:   stop,
		TimeInForce: order.Day,
	})
}

func (e *Executor) BuyMarket(ctx context.Context, symbol string, qty decimal.Decimal) Result {
	return e.submit(ctx, symbol, order.Buy, order.Market, qty, decimal.NullDecimal{}, decimal.NullDecimal{})
}

func (e *Executor) SellMarket(ctx context.Context, symbol string, qty decimal.Decimal) Result {
	return e.submit(ctx, symbol, order.Sell, order.Market, qty, decimal.NullDecimal{}, decimal.NullDecimal{})
}

func (e *Executor) BuyLimit(ctx context.Context, symbol string, qty, limit decimal.Decimal) Result {
	return e.submit(ctx, symbol, order.Buy, order.Limit, qty, order.Some(limit), decimal.NullDecimal{})
}

func (e *Executor) SellLimit(ctx context.Context, symbol string, qty, limit decimal.Decimal) Result {
	return e.submit(ctx, symbol, order.Sell, order.Limit, qty, order.Some(limit), decimal.NullDecimal{})
}

func (e *Executor) BuyStop(ctx context.Context, symbol string, qty, stop decimal.Decimal) Result {
	return e.submit(ctx, symbol, order.Buy, order.Stop, qty, decimal.NullDecimal{}, order.Some(stop))
}

func (e *Executor) SellStop(ctx context.Context, symbol string, qty, stop decimal.Decimal) Result {
	return e.submit(ctx, symbol, order.Sell, order.Stop, qty, decimal.NullDecimal{}, order.Some(stop))
}

func (e *Executor) BuyStopLimit(ctx context.Context, symbol string, qty, stop, limit decimal.Decimal) Result {
	return e.submit(ctx, symbol, order.Buy, order.StopLimit, qty, order.Some(limit), order.Some(stop))
}

func (e *Executor) SellStopLimit(ctx context.Context, symbol string, qty, stop, limit decimal.Decimal) Result {
	return e.submit(ctx, symbol, order.Sell, order.StopLimit, qty, order.Some(limit), order.Some(stop))
}
