package payment

import (
	"context"

	"github.com/plic/server/internal/module/payment/gateway"
)

// GatewayClient is the outbound surface of the card payment gateway
// used by the payment service. *gateway.Client satisfies it.
type GatewayClient interface {
	CreatePayment(ctx context.Context, req *gateway.CreatePaymentRequest) (*gateway.Response[gateway.SessionResult], error)
	CreateBillingKey(ctx context.Context, req *gateway.CreateBillingKeyRequest) (*gateway.Response[gateway.SessionResult], error)
	CancelPayment(ctx context.Context, req *gateway.CancelPaymentRequest) (*gateway.Response[gateway.CancelResult], error)
	GetStatus(ctx context.Context, trxID string) (*gateway.Response[gateway.StatusResult], error)
}
