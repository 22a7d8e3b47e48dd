// Package executor turns manual orders and strategy signals into recorded
// account changes, enforcing guardrails and signal idempotency on the way.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/internal/clock"
	"github.com/Revetex/tradeguard/internal/logger"
	"github.com/Revetex/tradeguard/journal"
	"github.com/Revetex/tradeguard/ledger"
	"github.com/Revetex/tradeguard/order"
	"github.com/Revetex/tradeguard/portfolio"
	"github.com/Revetex/tradeguard/quote"
	"github.com/Revetex/tradeguard/risk"
	"github.com/Revetex/tradeguard/router"
)

type Config struct {
	AccountID    string
	StartingCash decimal.Decimal
	// Mode is used for orders that do not name one. Empty means paper.
	Mode order.Mode
	// Enabled gates OnSignal. Manual orders are always accepted.
	Enabled bool
	// BaseSize is the notional of a signal order without its own quantity.
	BaseSize    decimal.Decimal
	Policy      risk.Policy
	LiveTimeout time.Duration
}

// StateStore persists named blobs. LoadState returns nil, nil when nothing
// has been saved under name.
type StateStore interface {
	SaveState(ctx context.Context, name string, blob []byte) error
	LoadState(ctx context.Context, name string) ([]byte, error)
}

// Deps are the collaborators an Executor drives. Only Quotes is required.
type Deps struct {
	Quotes  quote.Source
	Ledger  ledger.Ledger
	Journal journal.Journal
	State   StateStore
	Clock   clock.Clock
}

// Executor is safe for concurrent use. One mutex guards the portfolio, the
// guardrail state, ledger calls and the open-order book; quote fetches and
// live delegate calls run without it.
type Executor struct {
	cfg     Config
	clk     clock.Clock
	quotes  quote.Source
	ledger  ledger.Ledger
	journal journal.Journal
	store   StateStore
	router  *router.Router

	mu       sync.RWMutex
	enabled  bool
	port     *portfolio.State
	guard    *risk.State
	book     map[string]*OpenOrder
	statuses map[string]Status
	pruned   string
}

func New(ctx context.Context, cfg Config, deps Deps) (*Executor, error) {
	if deps.Quotes == nil {
		return nil, errors.New("executor: a quote source is required")
	}
	if cfg.Mode == "" {
		cfg.Mode = order.Paper
	}
	if cfg.Mode != order.Paper && cfg.Mode != order.Live {
		return nil, fmt.Errorf("executor: unknown mode %q", cfg.Mode)
	}
	if cfg.StartingCash.IsNegative() {
		return nil, fmt.Errorf("executor: negative starting cash %s", cfg.StartingCash)
	}
	if cfg.AccountID == "" {
		cfg.AccountID = "default"
	}
	if cfg.Policy.Location == nil {
		cfg.Policy.Location = time.UTC
	}
	if deps.Ledger == nil {
		deps.Ledger = ledger.NewMemory()
	}
	if deps.Journal == nil {
		deps.Journal = journal.NewMemory()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}

	e := &Executor{
		cfg:      cfg,
		clk:      deps.Clock,
		quotes:   deps.Quotes,
		ledger:   deps.Ledger,
		journal:  deps.Journal,
		store:    deps.State,
		router:   router.New(router.Config{LiveTimeout: cfg.LiveTimeout, Clock: deps.Clock}),
		enabled:  cfg.Enabled,
		port:     portfolio.New(cfg.StartingCash),
		guard:    risk.NewState(),
		book:     map[string]*OpenOrder{},
		statuses: map[string]Status{},
	}

	if err := e.load(ctx); err != nil {
		return nil, err
	}
	e.pruneLocked(ctx, e.day(e.clk.Now()))
	logger.Info(ctx, "executor ready",
		"account", cfg.AccountID,
		"mode", string(cfg.Mode),
		"cash", e.port.Cash().StringFixed(2),
		"open_orders", len(e.book),
	)
	return e, nil
}

func (e *Executor) Config() Config { return e.cfg }

// SetLiveExecutor registers the delegate used for live orders.
func (e *Executor) SetLiveExecutor(d router.Delegate) { e.router.SetDelegate(d) }

// ClearLiveExecutor returns live routing to the default-safe state in which
// every live order is rejected with NoLiveExecutor.
func (e *Executor) ClearLiveExecutor() { e.router.SetDelegate(nil) }

func (e *Executor) HasLiveExecutor() bool { return e.router.HasDelegate() }

func (e *Executor) SetEnabled(on bool) {
	e.mu.Lock()
	e.enabled = on
	e.mu.Unlock()
}

func (e *Executor) Enabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled
}

func (e *Executor) day(t time.Time) string {
	return clock.DayKey(t, e.cfg.Policy.Location)
}

// pruneLocked drops ledger entries from earlier trading days, at most once
// per day. Signals are only deduplicated within their own day.
func (e *Executor) pruneLocked(ctx context.Context, today string) {
	if e.pruned == today {
		return
	}
	n, err := e.ledger.Prune(context.WithoutCancel(ctx), today)
	if err != nil {
		logger.ErrorWithErr(ctx, "prune ledger", err, "before", today)
		return
	}
	e.pruned = today
	if n > 0 {
		logger.Debug(ctx, "ledger pruned", "entries", n, "before", today)
	}
}
