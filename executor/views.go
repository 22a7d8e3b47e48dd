package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/Revetex/tradeguard/journal"
	"github.com/Revetex/tradeguard/order"
	"github.com/Revetex/tradeguard/portfolio"
	"github.com/Revetex/tradeguard/quote"
	"github.com/Revetex/tradeguard/risk"
)

// Snapshot copies the paper account, marking positions at their last fill.
func (e *Executor) Snapshot() portfolio.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.port.Snapshot(e.clk.Now(), nil)
}

// SnapshotWithQuotes marks positions at current quotes where available.
func (e *Executor) SnapshotWithQuotes(ctx context.Context) portfolio.Snapshot {
	marks := quote.Prices(ctx, e.quotes, e.Snapshot().Symbols())

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.port.Snapshot(e.clk.Now(), marks)
}

// Guardrails returns a copy of today's guardrail counters.
func (e *Executor) Guardrails() *risk.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.guard.Clone()
}

// Activity returns every recorded outcome, oldest first.
func (e *Executor) Activity(ctx context.Context) ([]journal.Activity, error) {
	return e.journal.List(ctx)
}

// LastActions returns the n most recent activity records.
func (e *Executor) LastActions(ctx context.Context, n int) ([]journal.Activity, error) {
	recs, err := e.journal.List(ctx)
	if err != nil {
		return nil, err
	}
	return journal.Last(recs, n), nil
}

// Summary is a one-line status for humans.
func (e *Executor) Summary() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p := e.cfg.Policy
	today := e.day(e.clk.Now())
	trades := 0
	if e.guard.Day == today {
		trades = e.guard.TradesToday
	}
	limit := "unlimited"
	if p.MaxTradesPerDay > 0 {
		limit = fmt.Sprint(p.MaxTradesPerDay)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s] enabled=%t trades_today=%d/%s base=%s cooldown=%s sym_cd=%s",
		e.cfg.AccountID, e.cfg.Mode, e.enabled, trades, limit,
		e.cfg.BaseSize.StringFixed(0), p.GlobalCooldown, p.SymbolCooldown)
	if e.cfg.Mode == order.Paper {
		snap := e.port.Snapshot(e.clk.Now(), nil)
		fmt.Fprintf(&b, " cash=%s positions=%d open_orders=%d", snap.Cash.StringFixed(2), len(snap.Positions), len(e.book))
	} else {
		fmt.Fprintf(&b, " live_executor=%t", e.router.HasDelegate())
	}
	return b.String()
}
