package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/internal/logger"
	"github.com/Revetex/tradeguard/internal/trace"
	"github.com/Revetex/tradeguard/journal"
	"github.com/Revetex/tradeguard/order"
	"github.com/Revetex/tradeguard/router"
)

var ErrUnknownOrder = errors.New("unknown order")

// OpenOrder is a paper limit or stop order waiting for the price to reach it.
type OpenOrder struct {
	Order     order.Order     `json:"order"`
	Source    journal.Source  `json:"source"`
	Placed    time.Time       `json:"placed"`
	Day       string          `json:"day"`
	Triggered bool            `json:"triggered"`
	Reference decimal.Decimal `json:"reference"`
}

// OpenOrders lists resting orders, oldest first.
func (e *Executor) OpenOrders() []OpenOrder {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.openOrdersLocked()
}

func (e *Executor) openOrdersLocked() []OpenOrder {
	out := make([]OpenOrder, 0, len(e.book))
	for _, oo := range e.book {
		c := *oo
		c.Order = oo.Order.Clone()
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Placed.Equal(out[j].Placed) {
			return out[i].Placed.Before(out[j].Placed)
		}
		return out[i].Order.ID < out[j].Order.ID
	})
	return out
}

// CancelOrder cancels a resting order. Orders that already reached a
// terminal status cannot be canceled.
func (e *Executor) CancelOrder(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	oo, ok := e.book[id]
	if !ok {
		st, known := e.statuses[id]
		if !known {
			return fmt.Errorf("%w: %s", ErrUnknownOrder, id)
		}
		return fmt.Errorf("cancel %s: %w", id, router.Transition(router.Status(st), router.Canceled))
	}
	e.closeOpenLocked(ctx, oo, ReasonUserCanceled)
	return nil
}

func (e *Executor) closeOpenLocked(ctx context.Context, oo *OpenOrder, reason string) Result {
	delete(e.book, oo.Order.ID)
	e.statuses[oo.Order.ID] = StatusCanceled
	a := &attempt{order: oo.Order, source: oo.Source, ref: oo.Reference}
	e.recordLocked(ctx, a, StatusCanceled, decimal.Zero, decimal.Zero, decimal.Zero, reason)
	e.persistLocked(ctx)
	logger.Info(ctx, "open order canceled", "order_id", oo.Order.ID, "reason", reason)
	return Result{OrderID: oo.Order.ID, Status: StatusCanceled, Reason: reason}
}

// SweepOpenOrders re-prices every resting order and fills the ones that
// became marketable. Day orders left over from an earlier trading day are
// canceled as expired. Symbols without a usable quote are skipped.
func (e *Executor) SweepOpenOrders(ctx context.Context) []Result {
	ctx, span := trace.StartSpan(ctx, "executor.SweepOpenOrders")
	defer span.End()

	today := e.day(e.clk.Now())
	var out []Result
	for _, snap := range e.OpenOrders() {
		id := snap.Order.ID

		if snap.Order.TimeInForce == order.Day && snap.Day != today {
			e.mu.Lock()
			if cur, ok := e.book[id]; ok {
				out = append(out, e.closeOpenLocked(ctx, cur, ReasonExpired))
			}
			e.mu.Unlock()
			continue
		}

		q, err := e.quotes.Quote(ctx, snap.Order.Symbol)
		if err != nil {
			logger.Warn(ctx, "sweep skipped order", "order_id", id, "err", err.Error())
			continue
		}
		ev := router.Evaluate(snap.Order, q.Price, snap.Triggered)

		e.mu.Lock()
		cur, ok := e.book[id]
		switch {
		case !ok:
		case !ev.Marketable:
			if ev.Triggered && !cur.Triggered {
				cur.Triggered = true
				e.persistLocked(ctx)
			}
		default:
			delete(e.book, id)
			a := &attempt{order: cur.Order, source: journal.SourceSweep, ref: q.Price}
			out = append(out, e.settleLocked(ctx, a, router.Fill{
				Quantity: cur.Order.Quantity.Decimal,
				Price:    ev.Price,
				Time:     e.clk.Now(),
			}))
		}
		e.mu.Unlock()
	}
	return out
}
