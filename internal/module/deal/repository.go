package deal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for deal data access.
type Repository interface {
	CreateDeal(ctx context.Context, d *Deal) error
	GetDeal(ctx context.Context, id uuid.UUID) (*Deal, error)
	GetDealByNo(ctx context.Context, dealNo string) (*Deal, error)
	UpdateDeal(ctx context.Context, d *Deal) error
	ListDealsByUser(ctx context.Context, userID uuid.UUID) ([]*Deal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new deal repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateDeal(ctx context.Context, d *Deal) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("create deal: %w", err)
	}
	return nil
}

func (r *repository) GetDeal(ctx context.Context, id uuid.UUID) (*Deal, error) {
	var d Deal
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("get deal: %w", err)
	}
	return &d, nil
}

func (r *repository) GetDealByNo(ctx context.Context, dealNo string) (*Deal, error) {
	var d Deal
	err := r.db.WithContext(ctx).First(&d, "deal_no = ?", dealNo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("get deal by no: %w", err)
	}
	return &d, nil
}

func (r *repository) UpdateDeal(ctx context.Context, d *Deal) error {
	if err := r.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	return nil
}

func (r *repository) ListDealsByUser(ctx context.Context, userID uuid.UUID) ([]*Deal, error) {
	var deals []*Deal
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&deals).Error
	if err != nil {
		return nil, fmt.Errorf("list deals by user: %w", err)
	}
	return deals, nil
}
