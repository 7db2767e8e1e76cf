package workflows

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine() *StateMachine {
	return NewStateMachine(map[string][]string{
		"Draft":    {"Sent", "Accepted"},
		"Sent":     {"Accepted"},
		"Accepted": {},
	})
}

func TestStateMachine_CanTransition(t *testing.T) {
	sm := newTestMachine()

	tests := []struct {
		from, to string
		want     bool
	}{
		{"Draft", "Sent", true},
		{"Draft", "Accepted", true},
		{"Sent", "Accepted", true},
		{"Sent", "Draft", false},
		{"Accepted", "Sent", false},
		{"Unknown", "Sent", false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, sm.CanTransition(tt.from, tt.to))
		})
	}
}

func TestStateMachine_Transition(t *testing.T) {
	sm := newTestMachine()
	require.NoError(t, sm.Transition("Draft", "Sent"))

	err := sm.Transition("Accepted", "Draft")
	var transitionErr *TransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, "Accepted", transitionErr.From)
	assert.Equal(t, `cannot move from "Accepted" to "Draft"`, err.Error())
}

func TestStateMachine_Terminal(t *testing.T) {
	sm := newTestMachine()
	assert.True(t, sm.IsTerminal("Accepted"))
	assert.False(t, sm.IsTerminal("Draft"))
	assert.False(t, sm.IsTerminal("Unknown"))

	next := sm.GetAllowedTransitions("Draft")
	assert.Equal(t, []string{"Sent", "Accepted"}, next)
	next[0] = "mutated"
	assert.Equal(t, []string{"Sent", "Accepted"}, sm.GetAllowedTransitions("Draft"))
	assert.Empty(t, sm.GetAllowedTransitions("Unknown"))
}
