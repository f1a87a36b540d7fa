package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Repository defines the interface for payment intent data access.
type Repository interface {
	// Intent operations
	CreateIntent(ctx context.Context, intent *PaymentIntent) error
	GetIntent(ctx context.Context, id uuid.UUID) (*PaymentIntent, error)
	GetIntentByTrackID(ctx context.Context, trackID string) (*PaymentIntent, error)
	GetIntentByGatewayTrxID(ctx context.Context, trxID string) (*PaymentIntent, error)
	UpdateIntent(ctx context.Context, intent *PaymentIntent) error
	ListIntentsByDeal(ctx context.Context, dealID uuid.UUID) ([]*PaymentIntent, error)

	// Webhook event operations
	InsertWebhookEvent(ctx context.Context, event *ProcessedWebhookEvent) (bool, error)
	PurgeWebhookEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new payment repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// --- Intent Operations ---

func (r *repository) CreateIntent(ctx context.Context, intent *PaymentIntent) error {
	if err := r.db.WithContext(ctx).Create(intent).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTrackID
		}
		return fmt.Errorf("create payment intent: %w", err)
	}
	return nil
}

func (r *repository) GetIntent(ctx context.Context, id uuid.UUID) (*PaymentIntent, error) {
	var intent PaymentIntent
	err := r.db.WithContext(ctx).First(&intent, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("get payment intent: %w", err)
	}
	return &intent, nil
}

func (r *repository) GetIntentByTrackID(ctx context.Context, trackID string) (*PaymentIntent, error) {
	var intent PaymentIntent
	err := r.db.WithContext(ctx).First(&intent, "track_id = ?", trackID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("get payment intent by track id: %w", err)
	}
	return &intent, nil
}

func (r *repository) GetIntentByGatewayTrxID(ctx context.Context, trxID string) (*PaymentIntent, error) {
	var intent PaymentIntent
	err := r.db.WithContext(ctx).First(&intent, "gateway_trx_id = ?", trxID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("get payment intent by gateway trx id: %w", err)
	}
	return &intent, nil
}

func (r *repository) UpdateIntent(ctx context.Context, intent *PaymentIntent) error {
	if err := r.db.WithContext(ctx).Save(intent).Error; err != nil {
		return fmt.Errorf("update payment intent: %w", err)
	}
	return nil
}

func (r *repository) ListIntentsByDeal(ctx context.Context, dealID uuid.UUID) ([]*PaymentIntent, error) {
	var intents []*PaymentIntent
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at DESC").
		Find(&intents).Error
	if err != nil {
		return nil, fmt.Errorf("list payment intents by deal: %w", err)
	}
	return intents, nil
}

// --- Webhook Event Operations ---

// InsertWebhookEvent atomically records a webhook delivery. It returns true
// only for the first insert of a given dedupe key; concurrent duplicates
// hit the unique index and return false without an error.
func (r *repository) InsertWebhookEvent(ctx context.Context, event *ProcessedWebhookEvent) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return false, fmt.Errorf("insert webhook event: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) PurgeWebhookEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&ProcessedWebhookEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge webhook events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
