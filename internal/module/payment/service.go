package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plic/server/internal/module/payment/domain"
	"github.com/plic/server/internal/module/payment/gateway"
	"github.com/plic/server/internal/shared/events"
	apperrors "github.com/plic/server/internal/utils/errors"
	"github.com/plic/server/internal/utils/metrics"
)

// Service implements payment operations against the card gateway.
type Service struct {
	repo       Repository
	gateway    GatewayClient
	reconciler *Reconciler
	bus        *events.Bus
	baseURL    string // Public base URL for redirect return pages
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewService creates a new payment service.
func NewService(
	repo Repository,
	gw GatewayClient,
	reconciler *Reconciler,
	bus *events.Bus,
	baseURL string,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:       repo,
		gateway:    gw,
		reconciler: reconciler,
		bus:        bus,
		baseURL:    baseURL,
		metrics:    m,
		logger:     logger,
	}
}

// CreatePaymentInput carries the parameters for a new payment session.
type CreatePaymentInput struct {
	DealID     uuid.UUID
	UserID     uuid.UUID
	Amount     int64
	GoodsName  string
	Payer      gateway.PayerInfo
	Device     gateway.DeviceType
	ShopValues *gateway.ShopValueInfo
}

// PaymentSession is what the caller needs to send the payer to the
// gateway's auth page.
type PaymentSession struct {
	IntentID    uuid.UUID `json:"intent_id"`
	TrackID     string    `json:"track_id"`
	AuthPageURL string    `json:"auth_page_url"`
	ApprovalURL string    `json:"approval_url"`
}

// CreatePayment registers a one-time payment session with the gateway
// and records the intent locally. The intent stays non-terminal until a
// webhook settles or fails it.
func (s *Service) CreatePayment(ctx context.Context, in *CreatePaymentInput) (*PaymentSession, error) {
	if in.Amount <= 0 {
		return nil, apperrors.ValidationError("amount must be positive")
	}

	intent := &PaymentIntent{
		DealID:  in.DealID,
		UserID:  in.UserID,
		TrackID: GenerateDealNumber(),
		Kind:    domain.KindPayment,
		Amount:  in.Amount,
		Status:  domain.StatusInitiated,
	}
	if err := s.createIntent(ctx, intent, GenerateDealNumber); err != nil {
		return nil, err
	}

	device := in.Device
	if device == "" {
		device = gateway.DevicePC
	}

	start := time.Now()
	resp, err := s.gateway.CreatePayment(ctx, &gateway.CreatePaymentRequest{
		TrackID:       intent.TrackID,
		Amount:        in.Amount,
		ReturnURL:     s.baseURL + "/payments/return",
		GoodsName:     in.GoodsName,
		Payer:         in.Payer,
		Device:        device,
		ShopValueInfo: in.ShopValues,
	})
	if err != nil {
		return nil, s.gatewayCallFailed(ctx, intent, "create_payment", err)
	}
	s.observeGateway("create_payment", resp.ResCode, time.Since(start))

	cls := resp.Classify()
	if !cls.IsSuccess() {
		return nil, s.gatewayDeclined(ctx, intent, cls)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("gateway returned success without session data")
	}

	intent.Status = domain.StatusAwaitingRedirect
	intent.GatewayTrxID = resp.Data.TrxID
	if err := s.repo.UpdateIntent(ctx, intent); err != nil {
		return nil, err
	}

	s.bus.Publish(events.NewPaymentSessionOpenedEvent(intent.ID, intent.DealID, intent.TrackID, intent.Amount))

	s.logger.Info("payment session created",
		zap.String("intent_id", intent.ID.String()),
		zap.String("track_id", intent.TrackID),
		zap.Int64("amount", in.Amount))

	return &PaymentSession{
		IntentID:    intent.ID,
		TrackID:     intent.TrackID,
		AuthPageURL: resp.Data.AuthPageURL,
		ApprovalURL: resp.Data.ApprovalURL,
	}, nil
}

// CreateBillingKeyInput carries the parameters for a card-on-file session.
type CreateBillingKeyInput struct {
	DealID uuid.UUID
	UserID uuid.UUID
	Payer  gateway.PayerInfo
	Device gateway.DeviceType
}

// CreateBillingKey registers a card-on-file session. No charge is made.
func (s *Service) CreateBillingKey(ctx context.Context, in *CreateBillingKeyInput) (*PaymentSession, error) {
	intent := &PaymentIntent{
		DealID:  in.DealID,
		UserID:  in.UserID,
		TrackID: GenerateDealNumber(),
		Kind:    domain.KindBillingKey,
		Status:  domain.StatusInitiated,
	}
	if err := s.createIntent(ctx, intent, GenerateDealNumber); err != nil {
		return nil, err
	}

	device := in.Device
	if device == "" {
		device = gateway.DevicePC
	}

	start := time.Now()
	resp, err := s.gateway.CreateBillingKey(ctx, &gateway.CreateBillingKeyRequest{
		TrackID:   intent.TrackID,
		ReturnURL: s.baseURL + "/payments/billing-key/return",
		Payer:     in.Payer,
		Device:    device,
	})
	if err != nil {
		return nil, s.gatewayCallFailed(ctx, intent, "create_billing_key", err)
	}
	s.observeGateway("create_billing_key", resp.ResCode, time.Since(start))

	cls := resp.Classify()
	if !cls.IsSuccess() {
		return nil, s.gatewayDeclined(ctx, intent, cls)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("gateway returned success without session data")
	}

	intent.Status = domain.StatusAwaitingRedirect
	intent.GatewayTrxID = resp.Data.TrxID
	if err := s.repo.UpdateIntent(ctx, intent); err != nil {
		return nil, err
	}

	return &PaymentSession{
		IntentID:    intent.ID,
		TrackID:     intent.TrackID,
		AuthPageURL: resp.Data.AuthPageURL,
		ApprovalURL: resp.Data.ApprovalURL,
	}, nil
}

// CancelResultView is the caller-facing summary of a cancel.
type CancelResultView struct {
	IntentID     uuid.UUID `json:"intent_id"`
	TrackID      string    `json:"track_id"`
	Amount       int64     `json:"amount"`
	RemainAmount int64     `json:"remain_amount"`
	RefundDate   string    `json:"refund_date,omitempty"`
}

// CancelPayment reverses part or all of a settled payment. The remaining
// amount is checked locally before the gateway is called, so an
// over-refund never leaves the building.
func (s *Service) CancelPayment(ctx context.Context, intentID uuid.UUID, userID uuid.UUID, amount int64) (*CancelResultView, error) {
	if amount <= 0 {
		return nil, apperrors.ValidationError("cancel amount must be positive")
	}

	orig, err := s.repo.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if orig.UserID != userID {
		return nil, apperrors.Forbidden("payment belongs to another user")
	}
	if !orig.IsSettled() || orig.Kind == domain.KindCancel {
		return nil, ErrNotCancellable
	}
	if amount > orig.RemainAmount() {
		return nil, fmt.Errorf("%w: remain %d, requested %d",
			ErrCancelExceedsRemain, orig.RemainAmount(), amount)
	}

	cancel := &PaymentIntent{
		DealID:    orig.DealID,
		UserID:    orig.UserID,
		TrackID:   GenerateCancelTrackID(orig.TrackID),
		Kind:      domain.KindCancel,
		Amount:    amount,
		RootTrxID: orig.GatewayTrxID,
		Status:    domain.StatusInitiated,
	}
	if err := s.createIntent(ctx, cancel, func() string { return GenerateCancelTrackID(orig.TrackID) }); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := s.gateway.CancelPayment(ctx, &gateway.CancelPaymentRequest{
		TrackID:   cancel.TrackID,
		RootTrxID: orig.GatewayTrxID,
		Amount:    amount,
	})
	if err != nil {
		return nil, s.gatewayCallFailed(ctx, cancel, "cancel_payment", err)
	}
	s.observeGateway("cancel_payment", resp.ResCode, time.Since(start))

	cls := resp.Classify()
	if !cls.IsSuccess() {
		return nil, s.gatewayDeclined(ctx, cancel, cls)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("gateway returned success without cancel data")
	}

	// Cancel approvals are synchronous; the webhook is a confirmation.
	now := time.Now()
	cancel.Status = domain.StatusSettled
	cancel.GatewayTrxID = resp.Data.TrxID
	cancel.ApprovalNo = resp.Data.AuthCd
	cancel.SettledAt = &now
	if err := s.repo.UpdateIntent(ctx, cancel); err != nil {
		return nil, err
	}

	orig.RefundedAmount += amount
	if err := s.repo.UpdateIntent(ctx, orig); err != nil {
		return nil, err
	}

	remain, _ := strconv.ParseInt(resp.Data.RemainAmount, 10, 64)
	s.logger.Info("payment cancelled",
		zap.String("intent_id", orig.ID.String()),
		zap.String("cancel_track_id", cancel.TrackID),
		zap.Int64("amount", amount),
		zap.Int64("remain_amount", remain))

	return &CancelResultView{
		IntentID:     cancel.ID,
		TrackID:      cancel.TrackID,
		Amount:       amount,
		RemainAmount: remain,
		RefundDate:   resp.Data.RefundDate,
	}, nil
}

// GetIntent returns an intent scoped to its owner.
func (s *Service) GetIntent(ctx context.Context, intentID uuid.UUID, userID uuid.UUID) (*PaymentIntent, error) {
	intent, err := s.repo.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.UserID != userID {
		return nil, apperrors.Forbidden("payment belongs to another user")
	}
	return intent, nil
}

// ListDealIntents returns all intents recorded for a deal.
func (s *Service) ListDealIntents(ctx context.Context, dealID uuid.UUID) ([]*PaymentIntent, error) {
	return s.repo.ListIntentsByDeal(ctx, dealID)
}

// SyncStatus queries the gateway for the authoritative transaction state
// and, when the intent is still non-terminal locally, reconciles it the
// same way a webhook would. Used when a webhook is suspected lost.
func (s *Service) SyncStatus(ctx context.Context, intentID uuid.UUID) (*gateway.StatusResult, error) {
	intent, err := s.repo.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.GatewayTrxID == "" {
		return nil, fmt.Errorf("intent has no gateway transaction yet")
	}

	start := time.Now()
	resp, err := s.gateway.GetStatus(ctx, intent.GatewayTrxID)
	if err != nil {
		return nil, fmt.Errorf("query gateway status: %w", err)
	}
	s.observeGateway("trx_status", resp.ResCode, time.Since(start))

	cls := resp.Classify()
	if !cls.IsSuccess() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrGatewayDeclined, cls.Message, cls.Code)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("gateway returned success without status data")
	}

	st := resp.Data
	if !intent.Status.IsTerminal() && st.Status == gateway.TrxApproved {
		payload := &gateway.WebhookPayload{
			TrxID:      st.TrxID,
			OrdNo:      intent.TrackID,
			ResultCode: gateway.ResCodeSuccess,
			GoodsAmt:   st.Amount,
			CardCd:     st.PayInfo.CardInfo.Issuer,
			CardNo:     st.PayInfo.CardInfo.CardNo,
			ApprovalNo: st.PayInfo.AuthCd,
			ApprovalDt: st.TrxDate,
		}
		if _, err := s.reconciler.Reconcile(ctx, payload, nil); err != nil {
			s.logger.Error("status sync reconcile failed",
				zap.String("intent_id", intent.ID.String()),
				zap.Error(err))
		}
	}
	return st, nil
}

// gatewayCallFailed handles transport-level errors from the client, which
// only occur when the circuit breaker rejects the call outright.
func (s *Service) gatewayCallFailed(ctx context.Context, intent *PaymentIntent, op string, err error) error {
	s.logger.Error("gateway call failed",
		zap.String("operation", op),
		zap.String("track_id", intent.TrackID),
		zap.Error(err))
	if errors.Is(err, gateway.ErrCircuitOpen) {
		return apperrors.ServiceUnavailable("payment gateway unavailable")
	}
	return err
}

// gatewayDeclined marks the intent failed on a terminal decline and
// leaves it non-terminal on a retryable outcome.
func (s *Service) gatewayDeclined(ctx context.Context, intent *PaymentIntent, cls gateway.Classification) error {
	if cls.IsRetryable() {
		s.logger.Warn("gateway request retryable failure",
			zap.String("track_id", intent.TrackID),
			zap.String("res_code", cls.Code))
		return apperrors.ServiceUnavailable(cls.Message)
	}

	now := time.Now()
	intent.Status = domain.StatusFailed
	intent.FailureCode = &cls.Code
	intent.FailureMessage = &cls.Message
	intent.FailedAt = &now
	if err := s.repo.UpdateIntent(ctx, intent); err != nil {
		s.logger.Error("failed to mark intent failed", zap.Error(err))
	}
	return fmt.Errorf("%w: %s (%s)", ErrGatewayDeclined, cls.Message, cls.Code)
}

// createIntent persists a new intent, regenerating the track id on the
// rare same-second collision.
func (s *Service) createIntent(ctx context.Context, intent *PaymentIntent, gen func() string) error {
	for attempt := 0; ; attempt++ {
		err := s.repo.CreateIntent(ctx, intent)
		if err == nil || !errors.Is(err, ErrDuplicateTrackID) || attempt >= 2 {
			return err
		}
		intent.TrackID = gen()
	}
}

func (s *Service) observeGateway(op, resCode string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveGatewayRequest(op, resCode, d)
	}
}
