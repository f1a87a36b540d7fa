package deal

import (
	"context"

	"go.uber.org/zap"
)

// TransferTrigger starts the payout of held funds to the seller once a
// deal is paid.
type TransferTrigger interface {
	TriggerTransfer(ctx context.Context, d *Deal) error
}

// FailureNotifier tells the participants that a payment attempt failed.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, d *Deal, resultCode, resultMessage string) error
}

// logTransferTrigger is the default TransferTrigger. The actual bank
// transfer runs in an external settlement system; this records the
// handoff.
type logTransferTrigger struct {
	logger *zap.Logger
}

// NewLogTransferTrigger creates a TransferTrigger that only logs.
func NewLogTransferTrigger(logger *zap.Logger) TransferTrigger {
	return &logTransferTrigger{logger: logger}
}

func (t *logTransferTrigger) TriggerTransfer(_ context.Context, d *Deal) error {
	t.logger.Info("transfer triggered",
		zap.String("deal_id", d.ID.String()),
		zap.String("deal_no", d.DealNo),
		zap.Int64("amount", d.Amount))
	return nil
}

// logFailureNotifier is the default FailureNotifier.
type logFailureNotifier struct {
	logger *zap.Logger
}

// NewLogFailureNotifier creates a FailureNotifier that only logs.
func NewLogFailureNotifier(logger *zap.Logger) FailureNotifier {
	return &logFailureNotifier{logger: logger}
}

func (n *logFailureNotifier) NotifyFailure(_ context.Context, d *Deal, resultCode, resultMessage string) error {
	n.logger.Info("payment failure notification",
		zap.String("deal_id", d.ID.String()),
		zap.String("deal_no", d.DealNo),
		zap.String("result_code", resultCode),
		zap.String("result_message", resultMessage))
	return nil
}
