package deal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plic/server/internal/shared/events"
)

// memRepo is an in-memory Repository for tests.
type memRepo struct {
	mu    sync.Mutex
	deals map[uuid.UUID]*Deal
}

func newMemRepo() *memRepo {
	return &memRepo{deals: make(map[uuid.UUID]*Deal)}
}

func (r *memRepo) CreateDeal(_ context.Context, d *Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	cp := *d
	r.deals[d.ID] = &cp
	return nil
}

func (r *memRepo) GetDeal(_ context.Context, id uuid.UUID) (*Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deals[id]
	if !ok {
		return nil, ErrDealNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memRepo) GetDealByNo(_ context.Context, dealNo string) (*Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deals {
		if d.DealNo == dealNo {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrDealNotFound
}

func (r *memRepo) UpdateDeal(_ context.Context, d *Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.deals[d.ID] = &cp
	return nil
}

func (r *memRepo) ListDealsByUser(_ context.Context, userID uuid.UUID) ([]*Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Deal
	for _, d := range r.deals {
		if d.BuyerID == userID || d.SellerID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// countingTransfer records how many times a transfer was triggered.
type countingTransfer struct {
	mu    sync.Mutex
	count int
}

func (c *countingTransfer) TriggerTransfer(_ context.Context, _ *Deal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return nil
}

func (c *countingTransfer) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// countingNotifier records failure notifications.
type countingNotifier struct {
	mu    sync.Mutex
	count int
	last  string
}

func (c *countingNotifier) NotifyFailure(_ context.Context, _ *Deal, code, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	c.last = code
	return nil
}

func seedDeal(t *testing.T, repo *memRepo, status DealStatus) *Deal {
	t.Helper()
	d := &Deal{
		DealNo:    "PLIC_D20260830_00001ABCD",
		BuyerID:   uuid.New(),
		SellerID:  uuid.New(),
		GoodsName: "used laptop",
		Amount:    100000,
		Status:    status,
	}
	require.NoError(t, repo.CreateDeal(context.Background(), d))
	return d
}

func newTestHandler(repo *memRepo) (*EventHandler, *countingTransfer, *countingNotifier) {
	transfer := &countingTransfer{}
	notifier := &countingNotifier{}
	return NewEventHandler(repo, transfer, notifier, zap.NewNop()), transfer, notifier
}

func settledEvent(d *Deal) *events.PaymentSettledEvent {
	return events.NewPaymentSettledEvent(
		uuid.New(), d.ID, d.DealNo, "TRX900", d.Amount, "A1", "1234-****", "BC")
}

func TestSessionOpenedMovesDealToAwaitingPayment(t *testing.T) {
	repo := newMemRepo()
	h, _, _ := newTestHandler(repo)
	d := seedDeal(t, repo, DealStatusPending)

	event := events.NewPaymentSessionOpenedEvent(uuid.New(), d.ID, d.DealNo, d.Amount)
	require.NoError(t, h.Handle(event))

	got, err := repo.GetDeal(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, DealStatusAwaitingPayment, got.Status)

	// A retry session on the same deal is a no-op.
	require.NoError(t, h.Handle(event))
}

func TestPaymentSettledTriggersTransferOnce(t *testing.T) {
	repo := newMemRepo()
	h, transfer, _ := newTestHandler(repo)
	d := seedDeal(t, repo, DealStatusAwaitingPayment)

	require.NoError(t, h.Handle(settledEvent(d)))

	got, err := repo.GetDeal(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, DealStatusTransferring, got.Status)
	assert.NotNil(t, got.PaidAt)
	assert.Equal(t, 1, transfer.calls())

	// Redelivered settled event must not trigger a second transfer.
	require.NoError(t, h.Handle(settledEvent(d)))
	assert.Equal(t, 1, transfer.calls())
}

func TestPaymentFailedNotifiesAndFreezesDeal(t *testing.T) {
	repo := newMemRepo()
	h, transfer, notifier := newTestHandler(repo)
	d := seedDeal(t, repo, DealStatusAwaitingPayment)

	event := events.NewPaymentFailedEvent(uuid.New(), d.ID, d.DealNo, "9999", "unknown gateway error")
	require.NoError(t, h.Handle(event))

	got, err := repo.GetDeal(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, DealStatusFailed, got.Status)
	require.NotNil(t, got.FailureReason)
	assert.Equal(t, 1, notifier.count)
	assert.Equal(t, "9999", notifier.last)
	assert.Equal(t, 0, transfer.calls())

	// Redelivery is a no-op.
	require.NoError(t, h.Handle(event))
	assert.Equal(t, 1, notifier.count)
}

func TestPaymentSettledForPendingDealIsRejected(t *testing.T) {
	repo := newMemRepo()
	h, transfer, _ := newTestHandler(repo)
	d := seedDeal(t, repo, DealStatusPending)

	// No skips: a settled event cannot move pending straight to paid.
	err := h.Handle(settledEvent(d))
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, transfer.calls())

	got, err := repo.GetDeal(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, DealStatusPending, got.Status)
}
