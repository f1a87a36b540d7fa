package deal

import "fmt"

// StateMachine validates and executes deal state transitions. Every
// deal walks the happy path pending, awaiting_payment, paid,
// transferring, completed; there are no skips.
type StateMachine struct {
	transitions map[DealStatus][]DealStatus
}

// NewStateMachine creates a new deal state machine.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		transitions: map[DealStatus][]DealStatus{
			DealStatusPending:         {DealStatusAwaitingPayment, DealStatusCancelled},
			DealStatusAwaitingPayment: {DealStatusPaid, DealStatusFailed, DealStatusCancelled},
			DealStatusPaid:            {DealStatusTransferring, DealStatusCancelled},
			DealStatusTransferring:    {DealStatusCompleted},
			DealStatusCompleted:       {}, // Terminal state
			DealStatusFailed:          {}, // Terminal state
			DealStatusCancelled:       {}, // Terminal state
		},
	}
}

// CanTransition checks if a transition from `from` to `to` is valid.
func (sm *StateMachine) CanTransition(from, to DealStatus) bool {
	allowed, ok := sm.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Transition attempts to transition a deal to a new state.
func (sm *StateMachine) Transition(d *Deal, to DealStatus) error {
	if !sm.CanTransition(d.Status, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, d.Status, to)
	}
	d.Status = to
	return nil
}

// GetAllowedTransitions returns all allowed transitions from the current state.
func (sm *StateMachine) GetAllowedTransitions(from DealStatus) []DealStatus {
	allowed, ok := sm.transitions[from]
	if !ok {
		return []DealStatus{}
	}
	result := make([]DealStatus, len(allowed))
	copy(result, allowed)
	return result
}
