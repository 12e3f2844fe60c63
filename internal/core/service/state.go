package service

import (
	"slices"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

// State is a step of one transaction's security-model flow.
type State string

const (
	StateNonSecure      State = "NonSecure"
	State3DPending      State = "ThreeDSecurePending"
	State3DVerified     State = "ThreeDSecureVerified"
	State3DPayCallback  State = "ThreeDPayCallback"
	State3DHostCallback State = "ThreeDHostCallback"
	StateApproved       State = "Approved"
	StateDeclined       State = "Declined"
	StateIndeterminate  State = "Indeterminate"
)

func (s State) IsTerminal() bool {
	switch s {
	case StateApproved, StateDeclined, StateIndeterminate:
		return true
	default:
		return false
	}
}

// EntryState is where a flow starts for the account's security model.
func EntryState(model domain.SecurityModel) (State, bool) {
	switch model {
	case domain.ModelNonSecure:
		return StateNonSecure, true
	case domain.Model3DSecure:
		return State3DPending, true
	case domain.Model3DPay:
		return State3DPayCallback, true
	case domain.Model3DHost:
		return State3DHostCallback, true
	}
	return "", false
}

// flow records every state a transaction passes through.
type flow struct {
	state State
	trail []State
}

func newFlow(start State) *flow {
	return &flow{state: start, trail: []State{start}}
}

func (f *flow) transition(target State) error {
	if err := f.canTransitionTo(target); err != nil {
		return err
	}
	f.state = target
	f.trail = append(f.trail, target)
	return nil
}

func (f *flow) canTransitionTo(target State) error {
	switch f.state {
	case StateNonSecure:
		return f.allow(target, StateApproved, StateDeclined, StateIndeterminate)
	case State3DPending:
		return f.allow(target, State3DVerified, StateDeclined)
	case State3DVerified:
		return f.allow(target, StateApproved, StateDeclined, StateIndeterminate)
	case State3DPayCallback, State3DHostCallback:
		return f.allow(target, StateApproved, StateDeclined)
	}
	return domain.NewInvalidTransitionError(string(f.state), string(target))
}

func (f *flow) allow(target State, allowed ...State) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return domain.NewInvalidTransitionError(string(f.state), string(target))
}

// settle moves the flow to the terminal state the normalized result calls for.
func (f *flow) settle(r domain.Result) error {
	if r.IsApproved() {
		return f.transition(StateApproved)
	}
	return f.transition(StateDeclined)
}
