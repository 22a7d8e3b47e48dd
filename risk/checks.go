package risk

import (
	"errors"
	"fmt"
	"time"

	"github.com/Revetex/tradeguard/internal/clock"
)

// Reason identifies which guardrail denied an intent.
type Reason string

const (
	DailyCapExceeded     Reason = "DailyCapExceeded"
	GlobalCooldownActive Reason = "GlobalCooldownActive"
	SymbolCooldownActive Reason = "SymbolCooldownActive"
	SymbolLimitExceeded  Reason = "SymbolLimitExceeded"
)

var ErrGuardrailDenied = errors.New("guardrail denied")

// DeniedError carries the denial reason; it unwraps to ErrGuardrailDenied.
type DeniedError struct {
	Reason Reason
	Msg    string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("guardrail denied: %s: %s", e.Reason, e.Msg)
}

func (e *DeniedError) Unwrap() error { return ErrGuardrailDenied }

type Decision struct {
	Allowed bool
	Reason  Reason
	Msg     string
}

// Err returns nil for an allowed decision and a *DeniedError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason, Msg: d.Msg}
}

func deny(r Reason, format string, args ...any) Decision {
	return Decision{Reason: r, Msg: fmt.Sprintf(format, args...)}
}

// Check evaluates in against s without mutating it. Checks run in a fixed
// order and the first failure wins: daily cap, global cooldown, symbol
// cooldown, symbol size cap. Counters from a previous trading day count as zero.
func Check(p Policy, s *State, in TradeIntent, now time.Time) Decision {
	day := clock.DayKey(now, p.Location)
	v := s.view(day)

	if p.MaxTradesPerDay > 0 && v.TradesToday >= p.MaxTradesPerDay {
		return deny(DailyCapExceeded, "trades today %d >= max %d", v.TradesToday, p.MaxTradesPerDay)
	}

	if p.GlobalCooldown > 0 && !v.LastTrade.IsZero() {
		if wait := v.LastTrade.Add(p.GlobalCooldown).Sub(now); wait > 0 {
			return deny(GlobalCooldownActive, "global cooldown active for another %s", wait.Round(time.Millisecond))
		}
	}

	if p.SymbolCooldown > 0 {
		if last, ok := v.LastSymbolTrade[in.Symbol]; ok && !last.IsZero() {
			if wait := last.Add(p.SymbolCooldown).Sub(now); wait > 0 {
				return deny(SymbolCooldownActive, "%s cooldown active for another %s", in.Symbol, wait.Round(time.Millisecond))
			}
		}
	}

	if p.MaxQtyPerSymbol.IsPositive() {
		total := v.SymbolQty[in.Symbol].Add(in.Quantity)
		if total.GreaterThan(p.MaxQtyPerSymbol) {
			return deny(SymbolLimitExceeded, "%s quantity today %s would exceed max %s", in.Symbol, total, p.MaxQtyPerSymbol)
		}
	}
	if p.MaxNotionalPerSymbol.IsPositive() {
		total := v.SymbolNotional[in.Symbol].Add(in.Notional)
		if total.GreaterThan(p.MaxNotionalPerSymbol) {
			return deny(SymbolLimitExceeded, "%s notional today %s would exceed max %s", in.Symbol, total.StringFixed(2), p.MaxNotionalPerSymbol.StringFixed(2))
		}
	}

	return Decision{Allowed: true}
}
