package deal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plic/server/internal/module/payment"
	apperrors "github.com/plic/server/internal/utils/errors"
)

// Service implements deal operations.
type Service struct {
	repo   Repository
	sm     *StateMachine
	logger *zap.Logger
}

// NewService creates a new deal service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		sm:     NewStateMachine(),
		logger: logger,
	}
}

// CreateDealInput carries the parameters for a new deal.
type CreateDealInput struct {
	BuyerID   uuid.UUID
	SellerID  uuid.UUID
	GoodsName string
	Amount    int64
}

// CreateDeal registers a new deal in pending state.
func (s *Service) CreateDeal(ctx context.Context, in *CreateDealInput) (*Deal, error) {
	if in.Amount <= 0 {
		return nil, apperrors.ValidationError("amount must be positive")
	}
	if in.BuyerID == in.SellerID {
		return nil, apperrors.ValidationError("buyer and seller must differ")
	}

	d := &Deal{
		DealNo:    payment.GenerateDealNumber(),
		BuyerID:   in.BuyerID,
		SellerID:  in.SellerID,
		GoodsName: in.GoodsName,
		Amount:    in.Amount,
		Status:    DealStatusPending,
	}
	if err := s.repo.CreateDeal(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("deal created",
		zap.String("deal_id", d.ID.String()),
		zap.String("deal_no", d.DealNo),
		zap.Int64("amount", d.Amount))
	return d, nil
}

// GetDeal returns a deal visible to the given participant.
func (s *Service) GetDeal(ctx context.Context, dealID uuid.UUID, userID uuid.UUID) (*Deal, error) {
	d, err := s.repo.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if d.BuyerID != userID && d.SellerID != userID {
		return nil, ErrNotParticipant
	}
	return d, nil
}

// ListDeals returns all deals the user participates in.
func (s *Service) ListDeals(ctx context.Context, userID uuid.UUID) ([]*Deal, error) {
	return s.repo.ListDealsByUser(ctx, userID)
}

// CancelDeal cancels a deal that has not been paid yet.
func (s *Service) CancelDeal(ctx context.Context, dealID uuid.UUID, userID uuid.UUID) (*Deal, error) {
	d, err := s.GetDeal(ctx, dealID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.sm.Transition(d, DealStatusCancelled); err != nil {
		return nil, err
	}
	now := time.Now()
	d.CancelledAt = &now
	if err := s.repo.UpdateDeal(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("deal cancelled",
		zap.String("deal_id", d.ID.String()),
		zap.String("deal_no", d.DealNo))
	return d, nil
}
