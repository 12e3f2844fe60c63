package service

import (
	"testing"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryState(t *testing.T) {
	tests := []struct {
		model domain.SecurityModel
		state State
	}{
		{domain.ModelNonSecure, StateNonSecure},
		{domain.Model3DSecure, State3DPending},
		{domain.Model3DPay, State3DPayCallback},
		{domain.Model3DHost, State3DHostCallback},
	}
	for _, tt := range tests {
		t.Run(string(tt.model), func(t *testing.T) {
			s, ok := EntryState(tt.model)
			require.True(t, ok)
			assert.Equal(t, tt.state, s)
		})
	}

	_, ok := EntryState("4d")
	assert.False(t, ok)
}

func TestFlow_Transitions(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		allowed bool
	}{
		{StateNonSecure, StateApproved, true},
		{StateNonSecure, StateIndeterminate, true},
		{StateNonSecure, State3DVerified, false},
		{State3DPending, State3DVerified, true},
		{State3DPending, StateDeclined, true},
		{State3DPending, StateApproved, false},
		{State3DVerified, StateApproved, true},
		{State3DVerified, StateIndeterminate, true},
		{State3DPayCallback, StateApproved, true},
		{State3DPayCallback, StateIndeterminate, false},
		{State3DHostCallback, StateDeclined, true},
		{StateApproved, StateDeclined, false},
		{StateDeclined, StateApproved, false},
		{StateIndeterminate, StateApproved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			f := newFlow(tt.from)
			err := f.transition(tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, f.state)
				assert.Equal(t, []State{tt.from, tt.to}, f.trail)
				return
			}
			assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransition))
			assert.Equal(t, tt.from, f.state)
		})
	}
}

func TestState_IsTerminal(t *testing.T) {
	assert.True(t, StateApproved.IsTerminal())
	assert.True(t, StateDeclined.IsTerminal())
	assert.True(t, StateIndeterminate.IsTerminal())
	assert.False(t, State3DVerified.IsTerminal())
	assert.False(t, StateNonSecure.IsTerminal())
}
