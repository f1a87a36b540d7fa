package deal

import "github.com/google/uuid"

// CreateDealRequest represents a request to open a new deal.
type CreateDealRequest struct {
	SellerID  uuid.UUID `json:"seller_id" binding:"required"`
	GoodsName string    `json:"goods_name" binding:"required"`
	Amount    int64     `json:"amount" binding:"required,gt=0"`
}
