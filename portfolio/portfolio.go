// Package portfolio holds the paper account: cash, positions, and the
// rules for settling fills against them.
package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/order"
)

var (
	ErrInsufficientCash = errors.New("insufficient cash")
	ErrNoPosition       = errors.New("no position to sell")
)

type Position struct {
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

// Fill is a settled execution to apply to the account.
type Fill struct {
	Symbol   string
	Side     order.Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Time     time.Time
}

// Applied reports what a fill actually did. Sells larger than the position
// are reduced to the held quantity.
type Applied struct {
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	CashDelta decimal.Decimal
	Realized  decimal.Decimal
}

// State is the mutable account. It is not safe for concurrent use.
type State struct {
	cash      decimal.Decimal
	realized  decimal.Decimal
	positions map[string]*Position
	marks     map[string]decimal.Decimal
}

func New(startingCash decimal.Decimal) *State {
	return &State{
		cash:      startingCash,
		positions: map[string]*Position{},
		marks:     map[string]decimal.Decimal{},
	}
}

func (s *State) Cash() decimal.Decimal { return s.cash }

// Position returns a copy of the position in symbol.
func (s *State) Position(symbol string) (Position, bool) {
	p, ok := s.positions[symbol]
	if !ok {
		return Position{Symbol: symbol}, false
	}
	return *p, true
}

// Apply settles f. Buys debit cash and re-average the cost; sells credit
// cash and keep the average cost. Nothing changes when an error is returned.
func (s *State) Apply(f Fill) (Applied, error) {
	if !f.Quantity.IsPositive() || !f.Price.IsPositive() {
		return Applied{}, fmt.Errorf("apply fill: quantity %s and price %s must be positive", f.Quantity, f.Price)
	}

	switch f.Side {
	case order.Buy:
		cost := f.Quantity.Mul(f.Price)
		if cost.GreaterThan(s.cash) {
			return Applied{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientCash, cost.StringFixed(2), s.cash.StringFixed(2))
		}
		p := s.positions[f.Symbol]
		if p == nil {
			p = &Position{Symbol: f.Symbol}
			s.positions[f.Symbol] = p
		}
		total := p.AverageCost.Mul(p.Quantity).Add(cost)
		p.Quantity = p.Quantity.Add(f.Quantity)
		p.AverageCost = total.Div(p.Quantity)
		s.cash = s.cash.Sub(cost)
		s.marks[f.Symbol] = f.Price
		return Applied{Quantity: f.Quantity, Price: f.Price, CashDelta: cost.Neg()}, nil

	case order.Sell:
		p := s.positions[f.Symbol]
		if p == nil || !p.Quantity.IsPositive() {
			return Applied{}, fmt.Errorf("%w: %s", ErrNoPosition, f.Symbol)
		}
		qty := decimal.Min(f.Quantity, p.Quantity)
		proceeds := qty.Mul(f.Price)
		realized := f.Price.Sub(p.AverageCost).Mul(qty)
		p.Quantity = p.Quantity.Sub(qty)
		if p.Quantity.IsZero() {
			delete(s.positions, f.Symbol)
		}
		s.cash = s.cash.Add(proceeds)
		s.realized = s.realized.Add(realized)
		s.marks[f.Symbol] = f.Price
		return Applied{Quantity: qty, Price: f.Price, CashDelta: proceeds, Realized: realized}, nil

	default:
		return Applied{}, fmt.Errorf("apply fill: unknown side %q", f.Side)
	}
}

// Snapshot is an immutable view of the account.
type Snapshot struct {
	Cash      decimal.Decimal
	Equity    decimal.Decimal
	Realized  decimal.Decimal
	Positions map[string]Position
	Marks     map[string]decimal.Decimal
	AsOf      time.Time
}

// Symbols lists the held symbols in order.
func (s Snapshot) Symbols() []string {
	out := make([]string, 0, len(s.Positions))
	for sym := range s.Positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Snapshot copies the account. Positions are marked at quotes[symbol] when
// given, otherwise at their last fill price.
func (s *State) Snapshot(asOf time.Time, quotes map[string]decimal.Decimal) Snapshot {
	snap := Snapshot{
		Cash:      s.cash,
		Realized:  s.realized,
		Positions: make(map[string]Position, len(s.positions)),
		Marks:     make(map[string]decimal.Decimal, len(s.positions)),
		AsOf:      asOf,
	}
	equity := s.cash
	for sym, p := range s.positions {
		snap.Positions[sym] = *p
		mark, ok := quotes[sym]
		if !ok {
			mark = s.marks[sym]
		}
		snap.Marks[sym] = mark
		equity = equity.Add(p.Quantity.Mul(mark))
	}
	snap.Equity = equity
	return snap
}

// Persisted is the durable form of State.
type Persisted struct {
	Cash      decimal.Decimal            `json:"cash"`
	Realized  decimal.Decimal            `json:"realized"`
	Positions []Position                 `json:"positions"`
	Marks     map[string]decimal.Decimal `json:"marks"`
}

func (s *State) Export() Persisted {
	p := Persisted{
		Cash:     s.cash,
		Realized: s.realized,
		Marks:    make(map[string]decimal.Decimal, len(s.marks)),
	}
	for k, v := range s.marks {
		p.Marks[k] = v
	}
	for _, sym := range s.Snapshot(time.Time{}, nil).Symbols() {
		p.Positions = append(p.Positions, *s.positions[sym])
	}
	return p
}

// Restore rebuilds a State from p.
func Restore(p Persisted) *State {
	s := New(p.Cash)
	s.realized = p.Realized
	for _, pos := range p.Positions {
		pos := pos
		if pos.Quantity.IsPositive() {
			s.positions[pos.Symbol] = &pos
		}
	}
	for k, v := range p.Marks {
		s.marks[k] = v
	}
	return s
}
