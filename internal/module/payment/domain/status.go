package domain

// IntentStatus represents the status of a payment intent.
type IntentStatus string

const (
	StatusInitiated        IntentStatus = "initiated"
	StatusAwaitingRedirect IntentStatus = "awaiting_redirect"
	StatusSettled          IntentStatus = "settled"
	StatusFailed           IntentStatus = "failed"
)

// IsTerminal returns true if the status is a terminal state.
// Terminal intents are never mutated again.
func (s IntentStatus) IsTerminal() bool {
	return s == StatusSettled || s == StatusFailed
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s IntentStatus) CanTransitionTo(target IntentStatus) bool {
	switch s {
	case StatusInitiated:
		return target == StatusAwaitingRedirect || target == StatusSettled || target == StatusFailed
	case StatusAwaitingRedirect:
		return target == StatusSettled || target == StatusFailed
	case StatusSettled, StatusFailed:
		return false
	default:
		return false
	}
}

// IntentKind represents the kind of gateway operation an intent tracks.
type IntentKind string

const (
	KindPayment    IntentKind = "payment"
	KindBillingKey IntentKind = "billing_key"
	KindCancel     IntentKind = "cancel"
)
