package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/plic/server/internal/module/payment/domain"
	"github.com/plic/server/internal/module/payment/gateway"
	"github.com/plic/server/internal/shared/events"
)

// ReconcileOutcome describes what a webhook delivery did to local state.
type ReconcileOutcome string

const (
	OutcomeSettled   ReconcileOutcome = "settled"
	OutcomeFailed    ReconcileOutcome = "failed"
	OutcomeDuplicate ReconcileOutcome = "duplicate"
	OutcomeUnmatched ReconcileOutcome = "unmatched"
	OutcomeStale     ReconcileOutcome = "stale"
)

// Reconciler applies verified webhook payloads to payment intents.
// Every delivery lands in exactly one outcome; duplicates and unmatched
// deliveries are absorbed without touching intent state.
type Reconciler struct {
	repo   Repository
	dedupe DedupeStore
	bus    *events.Bus
	logger *zap.Logger
}

// NewReconciler creates a new webhook reconciler.
func NewReconciler(repo Repository, dedupe DedupeStore, bus *events.Bus, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		repo:   repo,
		dedupe: dedupe,
		bus:    bus,
		logger: logger,
	}
}

// Reconcile processes one verified webhook delivery. The dedupe store is
// consulted first, so redeliveries and concurrent duplicates of the same
// notification never reach intent state.
func (r *Reconciler) Reconcile(ctx context.Context, payload *gateway.WebhookPayload, rawBody []byte) (ReconcileOutcome, error) {
	fresh, err := r.dedupe.MarkProcessed(ctx, &ProcessedWebhookEvent{
		DedupeKey:  payload.DedupeKey(),
		TrxID:      payload.TrxID,
		TrackID:    payload.OrdNo,
		ResultCode: payload.ResultCode,
		Data:       string(rawBody),
	})
	if err != nil {
		return "", fmt.Errorf("dedupe webhook: %w", err)
	}
	if !fresh {
		r.logger.Info("duplicate webhook delivery ignored",
			zap.String("trx_id", payload.TrxID),
			zap.String("track_id", payload.OrdNo))
		return OutcomeDuplicate, nil
	}

	intent, err := r.repo.GetIntentByTrackID(ctx, payload.OrdNo)
	if err != nil {
		if errors.Is(err, ErrIntentNotFound) {
			r.logger.Warn("webhook matched no payment intent",
				zap.String("trx_id", payload.TrxID),
				zap.String("track_id", payload.OrdNo),
				zap.String("result_code", payload.ResultCode))
			return OutcomeUnmatched, nil
		}
		return "", err
	}

	if intent.Status.IsTerminal() {
		r.logger.Info("webhook for already reconciled intent ignored",
			zap.String("intent_id", intent.ID.String()),
			zap.String("status", string(intent.Status)))
		return OutcomeStale, nil
	}

	cls := gateway.Classify(payload.ResultCode)
	if cls.IsSuccess() {
		return r.settle(ctx, intent, payload)
	}
	return r.fail(ctx, intent, cls)
}

func (r *Reconciler) settle(ctx context.Context, intent *PaymentIntent, payload *gateway.WebhookPayload) (ReconcileOutcome, error) {
	now := time.Now()
	intent.Status = domain.StatusSettled
	intent.GatewayTrxID = payload.TrxID
	intent.ApprovalNo = payload.ApprovalNo
	intent.ApprovalDt = payload.ApprovalDt
	intent.MaskedCardNo = payload.CardNo
	intent.Issuer = payload.CardCd
	intent.SettledAt = &now
	if err := r.repo.UpdateIntent(ctx, intent); err != nil {
		return "", err
	}

	if intent.Kind == domain.KindCancel && intent.RootTrxID != "" {
		r.applyRefund(ctx, intent)
	}

	r.bus.Publish(events.NewPaymentSettledEvent(
		intent.ID, intent.DealID,
		intent.TrackID, payload.TrxID,
		intent.Amount,
		payload.ApprovalNo, payload.CardNo, payload.CardCd,
	))

	r.logger.Info("payment intent settled",
		zap.String("intent_id", intent.ID.String()),
		zap.String("track_id", intent.TrackID),
		zap.String("trx_id", payload.TrxID),
		zap.Int64("amount", intent.Amount))
	return OutcomeSettled, nil
}

func (r *Reconciler) fail(ctx context.Context, intent *PaymentIntent, cls gateway.Classification) (ReconcileOutcome, error) {
	now := time.Now()
	intent.Status = domain.StatusFailed
	intent.FailureCode = &cls.Code
	intent.FailureMessage = &cls.Message
	intent.FailedAt = &now
	if err := r.repo.UpdateIntent(ctx, intent); err != nil {
		return "", err
	}

	r.bus.Publish(events.NewPaymentFailedEvent(
		intent.ID, intent.DealID,
		intent.TrackID, cls.Code, cls.Message,
	))

	r.logger.Info("payment intent failed",
		zap.String("intent_id", intent.ID.String()),
		zap.String("track_id", intent.TrackID),
		zap.String("result_code", cls.Code))
	return OutcomeFailed, nil
}

// applyRefund bumps the refunded amount on the original intent after a
// cancel settles. A failure here is logged, not fatal: the dedupe record
// already protects against double application.
func (r *Reconciler) applyRefund(ctx context.Context, cancel *PaymentIntent) {
	orig, err := r.repo.GetIntentByGatewayTrxID(ctx, cancel.RootTrxID)
	if err != nil {
		r.logger.Warn("settled cancel has no original intent",
			zap.String("cancel_intent_id", cancel.ID.String()),
			zap.String("root_trx_id", cancel.RootTrxID),
			zap.Error(err))
		return
	}
	orig.RefundedAmount += cancel.Amount
	if err := r.repo.UpdateIntent(ctx, orig); err != nil {
		r.logger.Error("failed to record refund on original intent",
			zap.String("intent_id", orig.ID.String()),
			zap.Error(err))
	}
}
