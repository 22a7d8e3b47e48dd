package router

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/order"
)

var (
	ErrDelegate         = errors.New("live delegate failed")
	ErrNoLiveExecutor   = errors.New("no live executor configured")
	ErrDelegateRejected = errors.New("rejected by live executor")
)

// Fill is what a venue reports back for an executed order.
type Fill struct {
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Time     time.Time
	VenueID  string
}

// Delegate executes live orders. ref is the reference price the engine
// used for sizing. Returning an error wrapping ErrDelegateRejected means
// the venue refused the order; any other error is a delegate failure.
type Delegate interface {
	Execute(ctx context.Context, o order.Order, ref decimal.Decimal) (Fill, error)
}

// DelegateFunc adapts a function to a Delegate.
type DelegateFunc func(ctx context.Context, o order.Order, ref decimal.Decimal) (Fill, error)

func (f DelegateFunc) Execute(ctx context.Context, o order.Order, ref decimal.Decimal) (Fill, error) {
	return f(ctx, o, ref)
}

// Unset is the delegate in place until a live executor is registered.
type Unset struct{}

func (Unset) Execute(context.Context, order.Order, decimal.Decimal) (Fill, error) {
	return Fill{}, ErrNoLiveExecutor
}

func isUnset(d Delegate) bool {
	switch d.(type) {
	case nil, Unset, *Unset:
		return true
	}
	return false
}
