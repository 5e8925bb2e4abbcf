// Package checkout drives the shopper-side checkout: a three-step state machine over
// the storefront API plus the locally persisted cart it checks out.
package checkout

import (
	"errors"
	"fmt"
)

// Step is a stage of the checkout flow.
type Step string

const (
	StepAddress  Step = "address"
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
)

// ErrInvalidTransition is returned for a move that is not in the transition table.
var ErrInvalidTransition = errors.New("checkout: invalid step transition")

// transitions lists every permitted move. Shipping goes back to Address only when a quote fails.
var transitions = map[Step][]Step{
	StepAddress:  {StepShipping},
	StepShipping: {StepAddress, StepPayment},
	StepPayment:  {},
}

// CanTransition reports whether the table allows moving from s to next.
func (s Step) CanTransition(next Step) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Step) transition(next Step) (Step, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

func (s Step) expect(want Step) error {
	if s != want {
		return fmt.Errorf("%w: action requires step %s, flow is at %s", ErrInvalidTransition, want, s)
	}
	return nil
}
