package payment

import (
	"github.com/google/uuid"

	"github.com/plic/server/internal/module/payment/gateway"
)

// CreatePaymentRequest represents a request to open a payment session.
type CreatePaymentRequest struct {
	DealID     uuid.UUID          `json:"deal_id" binding:"required"`
	Amount     int64              `json:"amount" binding:"required,gt=0"`
	GoodsName  string             `json:"goods_name" binding:"required"`
	PayerName  string             `json:"payer_name"`
	PayerEmail string             `json:"payer_email"`
	PayerTel   string             `json:"payer_tel"`
	Device     gateway.DeviceType `json:"device" binding:"omitempty,oneof=pc mobile"`
}

// CreateBillingKeyRequest represents a request to register a card on file.
type CreateBillingKeyRequest struct {
	DealID     uuid.UUID          `json:"deal_id" binding:"required"`
	PayerName  string             `json:"payer_name"`
	PayerEmail string             `json:"payer_email"`
	PayerTel   string             `json:"payer_tel"`
	Device     gateway.DeviceType `json:"device" binding:"omitempty,oneof=pc mobile"`
}

// CancelRequest represents a request to cancel part or all of a payment.
type CancelRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason"`
}
