package router

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a routed order.
type Status string

const (
	Pending       Status = "pending"
	Delegated     Status = "delegated"
	Open          Status = "open"
	Filled        Status = "filled"
	Rejected      Status = "rejected"
	DelegateError Status = "delegate_error"
	Canceled      Status = "canceled"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[Status][]Status{
	Pending:   {Delegated, Filled, Rejected, Open},
	Delegated: {Filled, Rejected, DelegateError},
	Open:      {Filled, Rejected, Canceled},
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	switch s {
	case Filled, Rejected, DelegateError, Canceled:
		return true
	}
	return false
}

// Transition checks that from may move to to.
func Transition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Trail records the statuses an order passed through.
type Trail []Status

func newTrail() Trail { return Trail{Pending} }

func (t Trail) Current() Status { return t[len(t)-1] }

// To appends next if the move from the current status is legal.
func (t Trail) To(next Status) (Trail, error) {
	if err := Transition(t.Current(), next); err != nil {
		return t, err
	}
	return append(t, next), nil
}

func (t Trail) mustTo(next Status) Trail {
	out, err := t.To(next)
	if err != nil {
		panic(err)
	}
	return out
}
