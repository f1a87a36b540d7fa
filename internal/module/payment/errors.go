package payment

import "errors"

// Module errors.
var (
	ErrIntentNotFound          = errors.New("payment intent not found")
	ErrDuplicateTrackID        = errors.New("track id already exists")
	ErrIntentTerminal          = errors.New("payment intent already in a terminal state")
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
	ErrDuplicateWebhook        = errors.New("webhook already processed")
	ErrCancelExceedsRemain     = errors.New("cancel amount exceeds remaining amount")
	ErrNotCancellable          = errors.New("payment is not cancellable")
	ErrGatewayDeclined         = errors.New("gateway declined the request")
)
