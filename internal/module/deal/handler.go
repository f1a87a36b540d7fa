package deal

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/plic/server/internal/utils/errors"
)

// Handler handles HTTP requests for deals.
type Handler struct {
	service *Service
}

// NewHandler creates a new deal handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the deal routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	deals := r.Group("/deals")
	{
		deals.POST("", h.CreateDeal)
		deals.GET("", h.ListDeals)
		deals.GET("/:id", h.GetDeal)
		deals.POST("/:id/cancel", h.CancelDeal)
	}
}

// CreateDeal opens a new deal with the caller as buyer.
func (h *Handler) CreateDeal(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.service.CreateDeal(c.Request.Context(), &CreateDealInput{
		BuyerID:   userID,
		SellerID:  req.SellerID,
		GoodsName: req.GoodsName,
		Amount:    req.Amount,
	})
	if err != nil {
		handleDealError(c, err)
		return
	}

	c.JSON(http.StatusCreated, d)
}

// ListDeals returns the caller's deals.
func (h *Handler) ListDeals(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	deals, err := h.service.ListDeals(c.Request.Context(), userID)
	if err != nil {
		handleDealError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deals": deals})
}

// GetDeal returns a deal by ID.
func (h *Handler) GetDeal(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	dealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deal id"})
		return
	}

	d, err := h.service.GetDeal(c.Request.Context(), dealID, userID)
	if err != nil {
		handleDealError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// CancelDeal cancels an unpaid deal.
func (h *Handler) CancelDeal(c *gin.Context) {
	userID := getUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	dealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deal id"})
		return
	}

	d, err := h.service.CancelDeal(c.Request.Context(), dealID, userID)
	if err != nil {
		handleDealError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
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

func handleDealError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDealNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "deal_not_found"})
	case errors.Is(err, ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_state"})
	default:
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.StatusCode, appErr.ToResponse())
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
