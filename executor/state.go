package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Revetex/tradeguard/internal/logger"
	"github.com/Revetex/tradeguard/portfolio"
	"github.com/Revetex/tradeguard/risk"
)

const stateVersion = 1

type persisted struct {
	Version    int                 `json:"version"`
	Portfolio  portfolio.Persisted `json:"portfolio"`
	Guardrails *risk.State         `json:"guardrails"`
	Open       []OpenOrder         `json:"open_orders"`
}

func (e *Executor) stateKey() string { return "executor/" + e.cfg.AccountID }

func (e *Executor) load(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	blob, err := e.store.LoadState(ctx, e.stateKey())
	if err != nil {
		return fmt.Errorf("load executor state: %w", err)
	}
	if blob == nil {
		return nil
	}

	var p persisted
	if err := json.Unmarshal(blob, &p); err != nil {
		return fmt.Errorf("decode executor state: %w", err)
	}
	if p.Version != stateVersion {
		return fmt.Errorf("executor state version %d, want %d", p.Version, stateVersion)
	}

	e.port = portfolio.Restore(p.Portfolio)
	if p.Guardrails != nil {
		e.guard = p.Guardrails.Clone()
	}
	for i := range p.Open {
		oo := p.Open[i]
		e.book[oo.Order.ID] = &oo
		e.statuses[oo.Order.ID] = StatusOpen
	}
	logger.Debug(ctx, "executor state restored", "key", e.stateKey(), "trades_today", e.guard.TradesToday)
	return nil
}

// persistLocked writes the current state. The caller holds e.mu. A failed
// write is logged; the in-memory state stays authoritative.
func (e *Executor) persistLocked(ctx context.Context) {
	if e.store == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	p := persisted{
		Version:    stateVersion,
		Portfolio:  e.port.Export(),
		Guardrails: e.guard.Clone(),
		Open:       e.openOrdersLocked(),
	}
	blob, err := json.Marshal(p)
	if err != nil {
		logger.ErrorWithErr(ctx, "encode executor state", err)
		return
	}
	if err := e.store.SaveState(ctx, e.stateKey(), blob); err != nil {
		logger.ErrorWithErr(ctx, "save executor state", err, "key", e.stateKey())
	}
}
