package executor

import (
	"context"
	"strconv"
	"strings"

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
)

// Signal is a strategy's request to trade.
type Signal struct {
	// ID identifies the signal within its strategy, e.g. the bar index.
	ID string
	// Kind is buy or sell. Anything else is ignored and recorded.
	Kind string
	// Quantity overrides the configured base size when set.
	Quantity   decimal.NullDecimal
	Reason     string
	Confidence float64
}

// OnSignal executes sig at most once per trading day and only within the
// guardrails. A repeated signal returns StatusDuplicate and changes nothing.
func (e *Executor) OnSignal(ctx context.Context, symbol string, sig Signal) Result {
	ctx, span := trace.StartSpan(ctx, "executor.OnSignal",
		attribute.String("symbol", symbol),
		attribute.String("kind", sig.Kind),
		attribute.String("signal_id", sig.ID),
	)
	defer span.End()

	if !e.Enabled() {
		return Result{Status: StatusIgnored, Reason: ReasonDisabled}
	}
	symbol = order.NormalizeSymbol(symbol)
	side := order.Side(strings.ToLower(strings.TrimSpace(sig.Kind)))
	if side != order.Buy && side != order.Sell {
		a := &attempt{order: e.signalOrder(symbol, side, sig), source: journal.SourceSignal}
		a.order.ID = id.NewAt(e.clk.Now())
		return e.reject(ctx, a, StatusIgnored, ReasonUnknownKind, nil)
	}

	now := e.clk.Now()
	entry := ledger.NewEntry(symbol, string(side), sig.ID, e.day(now), now)

	e.mu.Lock()
	e.pruneLocked(ctx, entry.Bucket)
	got, err := e.ledger.Reserve(ctx, entry)
	e.mu.Unlock()
	if err != nil {
		a := &attempt{
			order:  order.Order{ID: id.NewAt(now), Symbol: symbol, Side: side, Type: order.Market, Mode: e.cfg.Mode},
			source: journal.SourceSignal,
		}
		return e.reject(ctx, a, StatusRejected, ReasonLedger, err)
	}
	if got == ledger.Duplicate {
		logger.Info(ctx, "duplicate signal", "fingerprint", entry.Fingerprint)
		return Result{Status: StatusDuplicate, Reason: ReasonDuplicate}
	}

	a, res, ok := e.prepare(ctx, e.signalOrder(symbol, side, sig), journal.SourceSignal, entry.Fingerprint)
	if !ok {
		return res
	}

	e.mu.Lock()
	intent := risk.TradeIntent{Symbol: a.order.Symbol, Quantity: a.order.Quantity.Decimal, Notional: a.notional}
	rsv, dec := e.guard.Reserve(e.cfg.Policy, intent, e.clk.Now())
	if !dec.Allowed {
		res := e.rejectLocked(ctx, a, StatusDenied, string(dec.Reason), dec.Err())
		e.mu.Unlock()
		return res
	}
	a.rsv = &rsv
	if !e.heldLocked(a) {
		res := e.rejectLocked(ctx, a, StatusRejected, ReasonNoPosition, portfolio.ErrNoPosition)
		e.mu.Unlock()
		return res
	}
	e.persistLocked(ctx)
	e.mu.Unlock()

	return e.finish(ctx, a)
}

func (e *Executor) signalOrder(symbol string, side order.Side, sig Signal) order.Order {
	o := order.Order{
		Symbol:      symbol,
		Side:        side,
		Type:        order.Market,
		TimeInForce: order.Day,
		Mode:        e.cfg.Mode,
		Metadata: map[string]string{
			"signal_id": sig.ID,
		},
	}
	if sig.Quantity.Valid {
		o.Quantity = sig.Quantity
	} else {
		o.Notional = order.Some(e.cfg.BaseSize)
	}
	if sig.Reason != "" {
		o.Metadata["signal_reason"] = sig.Reason
	}
	if sig.Confidence != 0 {
		o.Metadata["confidence"] = strconv.FormatFloat(sig.Confidence, 'f', -1, 64)
	}
	return o
}
