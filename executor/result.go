package executor

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/ledger"
	"github.com/Revetex/tradeguard/order"
	"github.com/Revetex/tradeguard/portfolio"
	"github.com/Revetex/tradeguard/quote"
	"github.com/Revetex/tradeguard/risk"
	"github.com/Revetex/tradeguard/router"
)

// Status is what the caller learns about an order or signal.
type Status string

const (
	StatusFilled        Status = "filled"
	StatusRejected      Status = "rejected"
	StatusOpen          Status = "open"
	StatusDuplicate     Status = "duplicate"
	StatusDenied        Status = "denied"
	StatusIgnored       Status = "ignored"
	StatusDelegateError Status = "delegate_error"
	StatusCanceled      Status = "canceled"
)

// Reasons that are not router or guardrail reasons.
const (
	ReasonInvalidOrder     = "InvalidOrder"
	ReasonNoPrice          = "NoPriceAvailable"
	ReasonPriceStale       = "PriceStale"
	ReasonInsufficientCash = "InsufficientCash"
	ReasonNoPosition       = "NoPosition"
	ReasonSizeTooSmall     = "SizeTooSmall"
	ReasonDuplicate        = "DuplicateSignal"
	ReasonDisabled         = "Disabled"
	ReasonUnknownKind      = "UnknownSignalKind"
	ReasonLedger           = "LedgerError"
	ReasonExpired          = "Expired"
	ReasonUserCanceled     = "Canceled"
)

type Result struct {
	OrderID   string
	Status    Status
	FillPrice decimal.Decimal
	FillQty   decimal.Decimal
	Reason    string
	Err       error
}

// OK reports whether the order was accepted, filled or resting.
func (r Result) OK() bool {
	return r.Status == StatusFilled || r.Status == StatusOpen
}

func (r Result) String() string {
	switch {
	case r.Status == StatusFilled:
		return fmt.Sprintf("%s %s %s @ %s", r.OrderID, r.Status, r.FillQty, r.FillPrice.StringFixed(4))
	case r.Reason != "":
		return fmt.Sprintf("%s %s(%s)", r.OrderID, r.Status, r.Reason)
	}
	return fmt.Sprintf("%s %s", r.OrderID, r.Status)
}

func fromRouter(s router.Status) Status {
	switch s {
	case router.Filled:
		return StatusFilled
	case router.Open:
		return StatusOpen
	case router.DelegateError:
		return StatusDelegateError
	case router.Canceled:
		return StatusCanceled
	}
	return StatusRejected
}

// reasonFor names the sentinel behind err.
func reasonFor(err error) string {
	var de *risk.DeniedError
	switch {
	case errors.As(err, &de):
		return string(de.Reason)
	case errors.Is(err, order.ErrInvalidOrder):
		return ReasonInvalidOrder
	case errors.Is(err, quote.ErrPriceStale):
		return ReasonPriceStale
	case errors.Is(err, quote.ErrNoPriceAvailable):
		return ReasonNoPrice
	case errors.Is(err, portfolio.ErrInsufficientCash):
		return ReasonInsufficientCash
	case errors.Is(err, portfolio.ErrNoPosition):
		return ReasonNoPosition
	case errors.Is(err, risk.ErrSizeTooSmall):
		return ReasonSizeTooSmall
	case errors.Is(err, ledger.ErrDuplicate):
		return ReasonDuplicate
	case errors.Is(err, router.ErrNoLiveExecutor):
		return router.ReasonNoLiveExecutor
	}
	return "Error"
}
