package deal

import "errors"

// Module errors.
var (
	ErrDealNotFound      = errors.New("deal not found")
	ErrInvalidTransition = errors.New("invalid deal state transition")
	ErrNotParticipant    = errors.New("user is not a participant of the deal")
)
