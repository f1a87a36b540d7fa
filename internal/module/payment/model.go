package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/plic/server/internal/module/payment/domain"
)

// PaymentIntent represents one attempted gateway operation. A trackId
// identifies exactly one intent for its entire lifetime.
type PaymentIntent struct {
	ID      uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DealID  uuid.UUID         `json:"deal_id" gorm:"type:uuid;not null;index"`
	UserID  uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	TrackID string            `json:"track_id" gorm:"uniqueIndex;not null"`
	Kind    domain.IntentKind `json:"kind" gorm:"not null;default:payment"`
	Amount  int64             `json:"amount"` // In KRW, no minor units
	Status  domain.IntentStatus `json:"status" gorm:"not null;default:initiated"`
	// RootTrxID links a cancel intent back to the original transaction.
	RootTrxID      string  `json:"-" gorm:"index"`
	GatewayTrxID   string  `json:"-" gorm:"index"` // Gateway's transaction id
	ApprovalNo     string  `json:"approval_no,omitempty"`
	ApprovalDt     string  `json:"-"`
	MaskedCardNo   string  `json:"masked_card_no,omitempty"`
	Issuer         string  `json:"issuer,omitempty"`
	RefundedAmount int64   `json:"refunded_amount" gorm:"default:0"`
	FailureCode    *string `json:"failure_code,omitempty"`
	FailureMessage *string `json:"failure_message,omitempty"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
	FailedAt       *time.Time `json:"failed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name.
func (PaymentIntent) TableName() string {
	return "payment_intents"
}

// IsSettled returns true if the intent settled successfully.
func (p *PaymentIntent) IsSettled() bool {
	return p.Status == domain.StatusSettled
}

// RemainAmount returns the amount still cancellable on this intent.
func (p *PaymentIntent) RemainAmount() int64 {
	return p.Amount - p.RefundedAmount
}

// ProcessedWebhookEvent records a webhook delivery that has been consumed.
// The unique index on DedupeKey is what makes duplicate deliveries no-ops.
type ProcessedWebhookEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DedupeKey  string    `gorm:"uniqueIndex;not null"` // trxId:approvalDt
	TrxID      string    `gorm:"index"`
	TrackID    string    `gorm:"index"`
	ResultCode string    `gorm:"not null"`
	Data       string    `gorm:"type:jsonb"` // Raw webhook payload
	CreatedAt  time.Time
}

// TableName returns the database table name.
func (ProcessedWebhookEvent) TableName() string {
	return "processed_webhook_events"
}
