package deal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/plic/server/internal/shared/events"
)

// EventHandler handles payment-related events for the deal module.
// Handlers are idempotent at the domain level: a redelivered event
// finds the deal already in the target state and skips.
type EventHandler struct {
	repo     Repository
	sm       *StateMachine
	transfer TransferTrigger
	notifier FailureNotifier
	logger   *zap.Logger
}

// NewEventHandler creates a new deal event handler.
func NewEventHandler(repo Repository, transfer TransferTrigger, notifier FailureNotifier, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		repo:     repo,
		sm:       NewStateMachine(),
		transfer: transfer,
		notifier: notifier,
		logger:   logger,
	}
}

// Handles returns the list of event types this handler can process.
func (h *EventHandler) Handles() []string {
	return []string{
		events.PaymentSessionOpenedType,
		events.PaymentSettledType,
		events.PaymentFailedType,
	}
}

// Handle processes the given event.
func (h *EventHandler) Handle(event events.Event) error {
	switch e := event.(type) {
	case *events.PaymentSessionOpenedEvent:
		return h.handleSessionOpened(e)
	case *events.PaymentSettledEvent:
		return h.handlePaymentSettled(e)
	case *events.PaymentFailedEvent:
		return h.handlePaymentFailed(e)
	default:
		h.logger.Warn("unhandled event type",
			zap.String("event_type", event.EventType()),
		)
		return nil
	}
}

// handleSessionOpened moves the deal to awaiting_payment.
func (h *EventHandler) handleSessionOpened(event *events.PaymentSessionOpenedEvent) error {
	ctx := context.Background()

	d, err := h.repo.GetDeal(ctx, event.DealID)
	if err != nil {
		h.logger.Error("failed to get deal",
			zap.String("deal_id", event.DealID.String()),
			zap.Error(err),
		)
		return err
	}

	// A payment retry re-opens a session on a deal already waiting.
	if d.Status == DealStatusAwaitingPayment {
		return nil
	}

	if err := h.sm.Transition(d, DealStatusAwaitingPayment); err != nil {
		h.logger.Error("failed to transition deal to awaiting_payment",
			zap.String("deal_id", d.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return h.repo.UpdateDeal(ctx, d)
}

// handlePaymentSettled marks the deal paid and hands the funds off to
// the transfer system. The settled event is published exactly once, so
// the transfer is triggered exactly once.
func (h *EventHandler) handlePaymentSettled(event *events.PaymentSettledEvent) error {
	ctx := context.Background()

	d, err := h.repo.GetDeal(ctx, event.DealID)
	if err != nil {
		h.logger.Error("failed to get deal",
			zap.String("deal_id", event.DealID.String()),
			zap.Error(err),
		)
		return err
	}

	// Idempotency check: if the deal is already paid or beyond, skip.
	switch d.Status {
	case DealStatusPaid, DealStatusTransferring, DealStatusCompleted:
		h.logger.Info("deal already paid, skipping",
			zap.String("deal_id", d.ID.String()),
			zap.String("status", string(d.Status)),
		)
		return nil
	}

	if err := h.sm.Transition(d, DealStatusPaid); err != nil {
		return err
	}
	now := time.Now()
	d.PaidAt = &now
	if err := h.repo.UpdateDeal(ctx, d); err != nil {
		return err
	}

	h.logger.Info("deal marked as paid",
		zap.String("deal_id", d.ID.String()),
		zap.String("track_id", event.TrackID),
		zap.Int64("amount", event.Amount),
	)

	if err := h.transfer.TriggerTransfer(ctx, d); err != nil {
		h.logger.Error("failed to trigger transfer",
			zap.String("deal_id", d.ID.String()),
			zap.Error(err),
		)
		return err
	}

	if err := h.sm.Transition(d, DealStatusTransferring); err != nil {
		return err
	}
	return h.repo.UpdateDeal(ctx, d)
}

// handlePaymentFailed marks the deal failed and notifies the participants.
func (h *EventHandler) handlePaymentFailed(event *events.PaymentFailedEvent) error {
	ctx := context.Background()

	d, err := h.repo.GetDeal(ctx, event.DealID)
	if err != nil {
		h.logger.Error("failed to get deal",
			zap.String("deal_id", event.DealID.String()),
			zap.Error(err),
		)
		return err
	}

	// Idempotency check: if already failed, skip.
	if d.Status == DealStatusFailed {
		return nil
	}

	if err := h.sm.Transition(d, DealStatusFailed); err != nil {
		h.logger.Error("failed to transition deal to failed",
			zap.String("deal_id", d.ID.String()),
			zap.Error(err),
		)
		return err
	}
	reason := event.ResultMessage
	d.FailureReason = &reason
	if err := h.repo.UpdateDeal(ctx, d); err != nil {
		return err
	}

	if err := h.notifier.NotifyFailure(ctx, d, event.ResultCode, event.ResultMessage); err != nil {
		h.logger.Error("failed to send failure notification",
			zap.String("deal_id", d.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}
