package workflows

import "fmt"

// StateMachine enforces status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// TransitionError reports a transition the state machine does not allow
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from %q to %q", e.From, e.To)
}

// NewStateMachine creates a new state machine with allowed transitions
func NewStateMachine(transitions map[string][]string) *StateMachine {
	allowed := make(map[string][]string, len(transitions))
	for from, to := range transitions {
		allowed[from] = append([]string(nil), to...)
	}
	return &StateMachine{allowedTransitions: allowed}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	for _, allowedTo := range sm.allowedTransitions[from] {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// Transition returns a *TransitionError when from cannot move to to
func (sm *StateMachine) Transition(from, to string) error {
	if !sm.CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// IsTerminal reports whether a known status has no outgoing transitions
func (sm *StateMachine) IsTerminal(status string) bool {
	allowed, exists := sm.allowedTransitions[status]
	return exists && len(allowed) == 0
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return append([]string(nil), allowed...)
}
