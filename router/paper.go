package router

import (
	"github.com/shopspring/decimal"

	"github.com/Revetex/tradeguard/order"
)

// Evaluation is the paper verdict for an order at a given last price.
type Evaluation struct {
	Marketable bool
	Price      decimal.Decimal
	// Triggered latches once a stop has been crossed.
	Triggered bool
}

// Evaluate applies the paper fill rules:
//
//	market      fills at last
//	limit       buy fills when last <= limit at min(last, limit),
//	            sell when last >= limit at max(last, limit)
//	stop        buy triggers at last >= stop, sell at last <= stop, fills at last
//	stop_limit  triggers like stop, then behaves as limit
func Evaluate(o order.Order, last decimal.Decimal, triggered bool) Evaluation {
	buy := o.Side == order.Buy

	switch o.Type {
	case order.Market:
		return Evaluation{Marketable: true, Price: last}

	case order.Limit:
		return limit(buy, last, o.LimitPrice.Decimal, false)

	case order.Stop:
		if crossed(buy, last, o.StopPrice.Decimal, triggered) {
			return Evaluation{Marketable: true, Price: last, Triggered: true}
		}
		return Evaluation{}

	case order.StopLimit:
		if !crossed(buy, last, o.StopPrice.Decimal, triggered) {
			return Evaluation{}
		}
		return limit(buy, last, o.LimitPrice.Decimal, true)
	}
	return Evaluation{}
}

func crossed(buy bool, last, stop decimal.Decimal, already bool) bool {
	if already {
		return true
	}
	if buy {
		return last.GreaterThanOrEqual(stop)
	}
	return last.LessThanOrEqual(stop)
}

func limit(buy bool, last, lim decimal.Decimal, triggered bool) Evaluation {
	if buy {
		if last.LessThanOrEqual(lim) {
			return Evaluation{Marketable: true, Price: decimal.Min(last, lim), Triggered: triggered}
		}
		return Evaluation{Triggered: triggered}
	}
	if last.GreaterThanOrEqual(lim) {
		return Evaluation{Marketable: true, Price: decimal.Max(last, lim), Triggered: triggered}
	}
	return Evaluation{Triggered: triggered}
}
