package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/internal/clock"
)

// State is the guardrail bookkeeping for one account. It is not safe for
// concurrent use; the executor serializes access. Counters belong to Day
// and are reset when a check or reservation lands on a later day.
// Cooldown timestamps survive the rollover.
type State struct {
	Day             string                     `json:"day"`
	TradesToday     int                        `json:"trades_today"`
	LastTrade       time.Time                  `json:"last_trade"`
	LastSymbolTrade map[string]time.Time       `json:"last_symbol_trade"`
	SymbolQty       map[string]decimal.Decimal `json:"symbol_qty"`
	SymbolNotional  map[string]decimal.Decimal `json:"symbol_notional"`
}

func NewState() *State {
	return &State{
		LastSymbolTrade: map[string]time.Time{},
		SymbolQty:       map[string]decimal.Decimal{},
		SymbolNotional:  map[string]decimal.Decimal{},
	}
}

// Clone deep-copies s.
func (s *State) Clone() *State {
	c := NewState()
	c.Day = s.Day
	c.TradesToday = s.TradesToday
	c.LastTrade = s.LastTrade
	for k, v := range s.LastSymbolTrade {
		c.LastSymbolTrade[k] = v
	}
	for k, v := range s.SymbolQty {
		c.SymbolQty[k] = v
	}
	for k, v := range s.SymbolNotional {
		c.SymbolNotional[k] = v
	}
	return c
}

// view returns s as seen on day without mutating it.
func (s *State) view(day string) *State {
	if s.Day == day {
		return s
	}
	v := NewState()
	v.Day = day
	v.LastTrade = s.LastTrade
	v.LastSymbolTrade = s.LastSymbolTrade
	return v
}

func (s *State) roll(day string) {
	if s.Day != day {
		s.Day = day
		s.TradesToday = 0
		s.SymbolQty = nil
		s.SymbolNotional = nil
	}
	if s.LastSymbolTrade == nil {
		s.LastSymbolTrade = map[string]time.Time{}
	}
	if s.SymbolQty == nil {
		s.SymbolQty = map[string]decimal.Decimal{}
	}
	if s.SymbolNotional == nil {
		s.SymbolNotional = map[string]decimal.Decimal{}
	}
}

// Reservation is the exact contribution of one admitted intent, so that it
// can be withdrawn if execution does not complete.
type Reservation struct {
	Symbol         string
	Day            string
	At             time.Time
	Quantity       decimal.Decimal
	Notional       decimal.Decimal
	prevLast       time.Time
	prevSymbolLast time.Time
	hadSymbolLast  bool
}

// Reserve checks in and, if allowed, applies it to the counters in the same
// step. Callers must hold the lock that guards s for the whole call.
func (s *State) Reserve(p Policy, in TradeIntent, now time.Time) (Reservation, Decision) {
	d := Check(p, s, in, now)
	if !d.Allowed {
		return Reservation{}, d
	}

	day := clock.DayKey(now, p.Location)
	s.roll(day)

	prevSym, had := s.LastSymbolTrade[in.Symbol]
	r := Reservation{
		Symbol:         in.Symbol,
		Day:            day,
		At:             now,
		Quantity:       in.Quantity,
		Notional:       in.Notional,
		prevLast:       s.LastTrade,
		prevSymbolLast: prevSym,
		hadSymbolLast:  had,
	}

	s.TradesToday++
	s.LastTrade = now
	s.LastSymbolTrade[in.Symbol] = now
	s.SymbolQty[in.Symbol] = s.SymbolQty[in.Symbol].Add(in.Quantity)
	s.SymbolNotional[in.Symbol] = s.SymbolNotional[in.Symbol].Add(in.Notional)
	return r, d
}

// Release withdraws r. Counters are only touched while still on r.Day; a
// cooldown timestamp is restored only if no later trade has replaced it.
func (s *State) Release(r Reservation) {
	if r.Symbol == "" {
		return
	}
	if s.Day == r.Day {
		if s.TradesToday > 0 {
			s.TradesToday--
		}
		s.SymbolQty[r.Symbol] = nonNegative(s.SymbolQty[r.Symbol].Sub(r.Quantity))
		s.SymbolNotional[r.Symbol] = nonNegative(s.SymbolNotional[r.Symbol].Sub(r.Notional))
		if s.SymbolQty[r.Symbol].IsZero() && s.SymbolNotional[r.Symbol].IsZero() {
			delete(s.SymbolQty, r.Symbol)
			delete(s.SymbolNotional, r.Symbol)
		}
	}
	if s.LastTrade.Equal(r.At) {
		s.LastTrade = r.prevLast
	}
	if last, ok := s.LastSymbolTrade[r.Symbol]; ok && last.Equal(r.At) {
		if r.hadSymbolLast {
			s.LastSymbolTrade[r.Symbol] = r.prevSymbolLast
		} else {
			delete(s.LastSymbolTrade, r.Symbol)
		}
	}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
