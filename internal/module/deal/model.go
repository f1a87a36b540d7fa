package deal

import (
	"time"

	"github.com/google/uuid"
)

// DealStatus represents the status of a deal.
type DealStatus string

const (
	DealStatusPending         DealStatus = "pending"
	DealStatusAwaitingPayment DealStatus = "awaiting_payment"
	DealStatusPaid            DealStatus = "paid"
	DealStatusTransferring    DealStatus = "transferring"
	DealStatusCompleted       DealStatus = "completed"
	DealStatusFailed          DealStatus = "failed"
	DealStatusCancelled       DealStatus = "cancelled"
)

// IsTerminal returns true if the status accepts no further transitions.
func (s DealStatus) IsTerminal() bool {
	return s == DealStatusCompleted || s == DealStatusFailed || s == DealStatusCancelled
}

// Deal represents a person-to-person safe trade. The buyer pays in, the
// funds are held, and on settlement they are transferred to the seller.
type Deal struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DealNo        string     `json:"deal_no" gorm:"uniqueIndex;not null"`
	BuyerID       uuid.UUID  `json:"buyer_id" gorm:"type:uuid;not null;index"`
	SellerID      uuid.UUID  `json:"seller_id" gorm:"type:uuid;not null;index"`
	GoodsName     string     `json:"goods_name" gorm:"not null"`
	Amount        int64      `json:"amount"` // In KRW, no minor units
	Status        DealStatus `json:"status" gorm:"not null;default:pending"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name.
func (Deal) TableName() string {
	return "deals"
}
