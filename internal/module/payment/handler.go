package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plic/server/internal/module/payment/gateway"
	apperrors "github.com/plic/server/internal/utils/errors"
)

// Handler handles HTTP requests for payments.
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the payment routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("", h.CreatePayment)
		payments.POST("/billing-key", h.CreateBillingKey)
		payments.GET("/:id", h.GetPayment)
		payments.POST("/:id/cancel", h.CancelPayment)
		payments.POST("/:id/sync", h.SyncStatus)
	}
}

// CreatePayment opens a payment session and returns the auth page URL.
func (h *Handler) CreatePayment(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.CreatePayment(c.Request.Context(), &CreatePaymentInput{
		DealID:    req.DealID,
		UserID:    userID,
		Amount:    req.Amount,
		GoodsName: req.GoodsName,
		Payer: gateway.PayerInfo{
			Name:  req.PayerName,
			Email: req.PayerEmail,
			Tel:   req.PayerTel,
		},
		Device: req.Device,
	})
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CreateBillingKey opens a card-on-file registration session.
func (h *Handler) CreateBillingKey(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateBillingKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.CreateBillingKey(c.Request.Context(), &CreateBillingKeyInput{
		DealID: req.DealID,
		UserID: userID,
		Payer: gateway.PayerInfo{
			Name:  req.PayerName,
			Email: req.PayerEmail,
			Tel:   req.PayerTel,
		},
		Device: req.Device,
	})
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetPayment returns a payment intent by ID.
func (h *Handler) GetPayment(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	intentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	intent, err := h.service.GetIntent(c.Request.Context(), intentID, userID)
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, intent)
}

// CancelPayment cancels part or all of a settled payment.
func (h *Handler) CancelPayment(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	intentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CancelPayment(c.Request.Context(), intentID, userID, req.Amount)
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SyncStatus pulls the gateway-side transaction state for an intent.
func (h *Handler) SyncStatus(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	intentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	status, err := h.service.SyncStatus(c.Request.Context(), intentID)
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func getUserID(c *gin.Context) uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

func handlePaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrIntentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "payment_not_found"})
	case errors.Is(err, ErrNotCancellable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "not_cancellable"})
	case errors.Is(err, ErrCancelExceedsRemain):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cancel_exceeds_remain"})
	case errors.Is(err, ErrGatewayDeclined):
		c.JSON(http.StatusBadGateway, gin.H{"error": "gateway_declined", "detail": err.Error()})
	default:
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.StatusCode, appErr.ToResponse())
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
