package events

import "github.com/google/uuid"

// Payment event type constants.
const (
	PaymentSessionOpenedType = "PaymentSessionOpened"
	PaymentSettledType       = "PaymentSettled"
	PaymentFailedType        = "PaymentFailed"
)

// PaymentSessionOpenedEvent is emitted when a payment session has been
// registered with the gateway and the payer is about to be redirected.
type PaymentSessionOpenedEvent struct {
	BaseEvent

	// IntentID is the unique identifier of the payment intent.
	IntentID uuid.UUID `json:"intent_id"`

	// DealID is the marketplace deal the payment belongs to.
	DealID uuid.UUID `json:"deal_id"`

	// TrackID is the merchant correlation id sent to the gateway.
	TrackID string `json:"track_id"`

	// Amount is the session amount in currency minor units.
	Amount int64 `json:"amount"`
}

// NewPaymentSessionOpenedEvent creates a new PaymentSessionOpenedEvent.
func NewPaymentSessionOpenedEvent(intentID, dealID uuid.UUID, trackID string, amount int64) *PaymentSessionOpenedEvent {
	return &PaymentSessionOpenedEvent{
		BaseEvent: NewBaseEvent(PaymentSessionOpenedType, intentID, "PaymentIntent"),
		IntentID:  intentID,
		DealID:    dealID,
		TrackID:   trackID,
		Amount:    amount,
	}
}

// PaymentSettledEvent is emitted exactly once when a gateway webhook
// settles a payment intent.
type PaymentSettledEvent struct {
	BaseEvent

	// IntentID is the unique identifier of the payment intent.
	IntentID uuid.UUID `json:"intent_id"`

	// DealID is the marketplace deal the payment belongs to.
	DealID uuid.UUID `json:"deal_id"`

	// TrackID is the merchant correlation id echoed by the gateway.
	TrackID string `json:"track_id"`

	// GatewayTrxID is the gateway-side transaction id.
	GatewayTrxID string `json:"gateway_trx_id"`

	// Amount is the settled amount in currency minor units.
	Amount int64 `json:"amount"`

	// ApprovalNo is the card approval number.
	ApprovalNo string `json:"approval_no,omitempty"`

	// MaskedCardNo is the masked payment instrument number.
	MaskedCardNo string `json:"masked_card_no,omitempty"`

	// Issuer is the card issuer name or code.
	Issuer string `json:"issuer,omitempty"`
}

// NewPaymentSettledEvent creates a new PaymentSettledEvent.
func NewPaymentSettledEvent(
	intentID, dealID uuid.UUID,
	trackID, gatewayTrxID string,
	amount int64,
	approvalNo, maskedCardNo, issuer string,
) *PaymentSettledEvent {
	return &PaymentSettledEvent{
		BaseEvent:    NewBaseEvent(PaymentSettledType, intentID, "PaymentIntent"),
		IntentID:     intentID,
		DealID:       dealID,
		TrackID:      trackID,
		GatewayTrxID: gatewayTrxID,
		Amount:       amount,
		ApprovalNo:   approvalNo,
		MaskedCardNo: maskedCardNo,
		Issuer:       issuer,
	}
}

// PaymentFailedEvent is emitted exactly once when a gateway webhook
// reports a terminal payment failure.
type PaymentFailedEvent struct {
	BaseEvent

	// IntentID is the unique identifier of the payment intent.
	IntentID uuid.UUID `json:"intent_id"`

	// DealID is the marketplace deal the payment was for.
	DealID uuid.UUID `json:"deal_id"`

	// TrackID is the merchant correlation id.
	TrackID string `json:"track_id"`

	// ResultCode is the gateway result code.
	ResultCode string `json:"result_code,omitempty"`

	// ResultMessage is a human-readable failure message.
	ResultMessage string `json:"result_message,omitempty"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent.
func NewPaymentFailedEvent(
	intentID, dealID uuid.UUID,
	trackID, resultCode, resultMessage string,
) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent:     NewBaseEvent(PaymentFailedType, intentID, "PaymentIntent"),
		IntentID:      intentID,
		DealID:        dealID,
		TrackID:       trackID,
		ResultCode:    resultCode,
		ResultMessage: resultMessage,
	}
}
