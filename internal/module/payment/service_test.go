package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plic/server/internal/module/payment/domain"
	"github.com/plic/server/internal/module/payment/gateway"
	"github.com/plic/server/internal/shared/events"
)

// fakeGateway implements GatewayClient with canned responses.
type fakeGateway struct {
	createResp *gateway.Response[gateway.SessionResult]
	cancelResp *gateway.Response[gateway.CancelResult]
	statusResp *gateway.Response[gateway.StatusResult]

	cancelCalls int
}

func (f *fakeGateway) CreatePayment(_ context.Context, _ *gateway.CreatePaymentRequest) (*gateway.Response[gateway.SessionResult], error) {
	return f.createResp, nil
}

func (f *fakeGateway) CreateBillingKey(_ context.Context, _ *gateway.CreateBillingKeyRequest) (*gateway.Response[gateway.SessionResult], error) {
	return f.createResp, nil
}

func (f *fakeGateway) CancelPayment(_ context.Context, _ *gateway.CancelPaymentRequest) (*gateway.Response[gateway.CancelResult], error) {
	f.cancelCalls++
	return f.cancelResp, nil
}

func (f *fakeGateway) GetStatus(_ context.Context, _ string) (*gateway.Response[gateway.StatusResult], error) {
	return f.statusResp, nil
}

func newTestService(t *testing.T, gw GatewayClient) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	bus := events.NewBus(zap.NewNop())
	reconciler := NewReconciler(repo, NewDBDedupeStore(repo), bus, zap.NewNop())
	svc := NewService(repo, gw, reconciler, bus, "https://plic.example.com", nil, zap.NewNop())
	return svc, repo
}

func sessionOK(trxID string) *gateway.Response[gateway.SessionResult] {
	return &gateway.Response[gateway.SessionResult]{
		Success: true,
		ResCode: "0000",
		Data: &gateway.SessionResult{
			AuthPageURL: "https://pg.example.com/auth/" + trxID,
			ApprovalURL: "https://pg.example.com/approve/" + trxID,
			TrxID:       trxID,
		},
	}
}

func TestCreatePaymentOpensSession(t *testing.T) {
	gw := &fakeGateway{createResp: sessionOK("TRX200")}
	svc, repo := newTestService(t, gw)

	session, err := svc.CreatePayment(context.Background(), &CreatePaymentInput{
		DealID:    uuid.New(),
		UserID:    uuid.New(),
		Amount:    100000,
		GoodsName: "중고 카메라",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AuthPageURL)
	assert.Regexp(t, `^PLIC_D\d{8}_`, session.TrackID)

	intent, err := repo.GetIntent(context.Background(), session.IntentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingRedirect, intent.Status)
	assert.Equal(t, "TRX200", intent.GatewayTrxID)
}

func TestCreatePaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})

	_, err := svc.CreatePayment(context.Background(), &CreatePaymentInput{
		DealID: uuid.New(),
		UserID: uuid.New(),
		Amount: 0,
	})
	require.Error(t, err)
}

func TestCreatePaymentTerminalDeclineFailsIntent(t *testing.T) {
	gw := &fakeGateway{createResp: &gateway.Response[gateway.SessionResult]{
		Success: false,
		ResCode: "2001",
	}}
	svc, repo := newTestService(t, gw)

	dealID := uuid.New()
	_, err := svc.CreatePayment(context.Background(), &CreatePaymentInput{
		DealID:    dealID,
		UserID:    uuid.New(),
		Amount:    50000,
		GoodsName: "test",
	})
	require.ErrorIs(t, err, ErrGatewayDeclined)

	intents, err := repo.ListIntentsByDeal(context.Background(), dealID)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, domain.StatusFailed, intents[0].Status)
}

func TestCreatePaymentRetryableFailureKeepsIntentOpen(t *testing.T) {
	gw := &fakeGateway{createResp: &gateway.Response[gateway.SessionResult]{
		Success: false,
		ResCode: "TIMEOUT",
	}}
	svc, repo := newTestService(t, gw)

	dealID := uuid.New()
	_, err := svc.CreatePayment(context.Background(), &CreatePaymentInput{
		DealID:    dealID,
		UserID:    uuid.New(),
		Amount:    50000,
		GoodsName: "test",
	})
	require.Error(t, err)

	intents, err := repo.ListIntentsByDeal(context.Background(), dealID)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, domain.StatusInitiated, intents[0].Status)
}

func seedSettledPayment(t *testing.T, repo *memRepo, amount int64) *PaymentIntent {
	t.Helper()
	intent := &PaymentIntent{
		DealID:       uuid.New(),
		UserID:       uuid.New(),
		TrackID:      GenerateDealNumber(),
		Kind:         domain.KindPayment,
		Amount:       amount,
		GatewayTrxID: "TRXROOT1",
		Status:       domain.StatusSettled,
	}
	require.NoError(t, repo.CreateIntent(context.Background(), intent))
	return intent
}

func TestCancelPaymentPartialThenOverRemainRejected(t *testing.T) {
	gw := &fakeGateway{cancelResp: &gateway.Response[gateway.CancelResult]{
		Success: true,
		ResCode: "0000",
		Data: &gateway.CancelResult{
			TrxID:        "TRXCXL1",
			AuthCd:       "C001",
			RemainAmount: "60000",
		},
	}}
	svc, repo := newTestService(t, gw)
	orig := seedSettledPayment(t, repo, 100000)

	// First partial cancel of 40000 out of 100000 succeeds.
	result, err := svc.CancelPayment(context.Background(), orig.ID, orig.UserID, 40000)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), result.Amount)
	assert.Regexp(t, `^PLIC_R`, result.TrackID)

	got, err := repo.GetIntent(context.Background(), orig.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), got.RemainAmount())

	// Second cancel of 70000 exceeds the remaining 60000 and must be
	// rejected before the gateway is called.
	callsBefore := gw.cancelCalls
	_, err = svc.CancelPayment(context.Background(), orig.ID, orig.UserID, 70000)
	require.ErrorIs(t, err, ErrCancelExceedsRemain)
	assert.Equal(t, callsBefore, gw.cancelCalls)
}

func TestCancelPaymentRejectsUnsettledIntent(t *testing.T) {
	svc, repo := newTestService(t, &fakeGateway{})

	intent := &PaymentIntent{
		DealID:  uuid.New(),
		UserID:  uuid.New(),
		TrackID: GenerateDealNumber(),
		Kind:    domain.KindPayment,
		Amount:  100000,
		Status:  domain.StatusAwaitingRedirect,
	}
	require.NoError(t, repo.CreateIntent(context.Background(), intent))

	_, err := svc.CancelPayment(context.Background(), intent.ID, intent.UserID, 10000)
	require.ErrorIs(t, err, ErrNotCancellable)
}

func TestCancelPaymentRejectsForeignUser(t *testing.T) {
	svc, repo := newTestService(t, &fakeGateway{})
	orig := seedSettledPayment(t, repo, 100000)

	_, err := svc.CancelPayment(context.Background(), orig.ID, uuid.New(), 10000)
	require.Error(t, err)
}

func TestSyncStatusSettlesStuckIntent(t *testing.T) {
	gw := &fakeGateway{statusResp: &gateway.Response[gateway.StatusResult]{
		Success: true,
		ResCode: "0000",
		Data: &gateway.StatusResult{
			TrxID:   "TRX300",
			Status:  gateway.TrxApproved,
			Amount:  "100000",
			TrxDate: "20260830160000",
		},
	}}
	svc, repo := newTestService(t, gw)

	intent := &PaymentIntent{
		DealID:       uuid.New(),
		UserID:       uuid.New(),
		TrackID:      GenerateDealNumber(),
		Kind:         domain.KindPayment,
		Amount:       100000,
		GatewayTrxID: "TRX300",
		Status:       domain.StatusAwaitingRedirect,
	}
	require.NoError(t, repo.CreateIntent(context.Background(), intent))

	st, err := svc.SyncStatus(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, gateway.TrxApproved, st.Status)

	got, err := repo.GetIntent(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSettled, got.Status)
}
