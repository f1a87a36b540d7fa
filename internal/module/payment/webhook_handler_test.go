package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plic/server/internal/module/payment/domain"
	"github.com/plic/server/internal/shared/events"
)

const testWebhookSecret = "whsec_test"

func newWebhookTestServer(t *testing.T, cfg WebhookConfig) (*gin.Engine, *memRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemRepo()
	bus := events.NewBus(zap.NewNop())
	reconciler := NewReconciler(repo, NewDBDedupeStore(repo), bus, zap.NewNop())
	handler := NewWebhookHandler(reconciler, cfg, nil, zap.NewNop())

	router := gin.New()
	handler.RegisterRoutes(router.Group("/webhooks"))
	return router, repo
}

func postWebhook(router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/softment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func webhookBody(ordNo, trxID, resultCode, approvalDt string) []byte {
	body, _ := json.Marshal(map[string]string{
		"trxId":      trxID,
		"ordNo":      ordNo,
		"resultCode": resultCode,
		"goodsAmt":   "100000",
		"approvalNo": "A777",
		"approvalDt": approvalDt,
	})
	return body
}

func TestWebhookValidSignatureSettles(t *testing.T) {
	router, repo := newWebhookTestServer(t, WebhookConfig{Secret: testWebhookSecret})
	intent := seedIntent(t, repo, domain.StatusAwaitingRedirect)

	body := webhookBody(intent.TrackID, "TRX100", "0000", "20260830150000")
	w := postWebhook(router, body, ComputeSignature(testWebhookSecret, body))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"resultCode":"0000","resultMsg":"ok"}`, w.Body.String())

	got, err := repo.GetIntent(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSettled, got.Status)
}

func TestWebhookTamperedBodyRejected(t *testing.T) {
	router, repo := newWebhookTestServer(t, WebhookConfig{Secret: testWebhookSecret})
	intent := seedIntent(t, repo, domain.StatusAwaitingRedirect)

	body := webhookBody(intent.TrackID, "TRX101", "0000", "20260830150000")
	sig := ComputeSignature(testWebhookSecret, body)
	tampered := bytes.Replace(body, []byte("100000"), []byte("999999"), 1)

	w := postWebhook(router, tampered, sig)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The intent must not have moved.
	got, err := repo.GetIntent(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingRedirect, got.Status)
}

func TestWebhookMissingSignatureRejected(t *testing.T) {
	router, _ := newWebhookTestServer(t, WebhookConfig{Secret: testWebhookSecret})

	body := webhookBody("PLIC_D20260830_00001AAAA", "TRX102", "0000", "20260830150000")
	w := postWebhook(router, body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookWrongSecretRejected(t *testing.T) {
	router, _ := newWebhookTestServer(t, WebhookConfig{Secret: testWebhookSecret})

	body := webhookBody("PLIC_D20260830_00001AAAA", "TRX103", "0000", "20260830150000")
	w := postWebhook(router, body, ComputeSignature("wrong-secret", body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookUnsignedAllowedWhenConfigured(t *testing.T) {
	router, repo := newWebhookTestServer(t, WebhookConfig{Secret: testWebhookSecret, AllowUnsigned: true})
	intent := seedIntent(t, repo, domain.StatusAwaitingRedirect)

	body := webhookBody(intent.TrackID, "TRX104", "0000", "20260830150000")
	w := postWebhook(router, body, "")
	require.Equal(t, http.StatusOK, w.Code)

	got, err := repo.GetIntent(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSettled, got.Status)
}

func TestWebhookMalformedPayloadRejected(t *testing.T) {
	router, _ := newWebhookTestServer(t, WebhookConfig{Secret: testWebhookSecret})

	body := []byte(`{not json`)
	w := postWebhook(router, body, ComputeSignature(testWebhookSecret, body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookMissingFieldsRejected(t *testing.T) {
	router, _ := newWebhookTestServer(t, WebhookConfig{Secret: testWebhookSecret})

	body := []byte(`{"ordNo":"PLIC_D20260830_00001AAAA"}`)
	w := postWebhook(router, body, ComputeSignature(testWebhookSecret, body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookDuplicateDeliveryAckedIdentically(t *testing.T) {
	router, repo := newWebhookTestServer(t, WebhookConfig{Secret: testWebhookSecret})
	intent := seedIntent(t, repo, domain.StatusAwaitingRedirect)

	body := webhookBody(intent.TrackID, "TRX105", "0000", "20260830150000")
	sig := ComputeSignature(testWebhookSecret, body)

	first := postWebhook(router, body, sig)
	second := postWebhook(router, body, sig)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestWebhookUnmatchedStillAcked(t *testing.T) {
	router, _ := newWebhookTestServer(t, WebhookConfig{Secret: testWebhookSecret})

	body := webhookBody("PLIC_D20260830_11111ZZZZ", "TRX106", "0000", "20260830150000")
	w := postWebhook(router, body, ComputeSignature(testWebhookSecret, body))

	// Unknown trackId is our problem, not the gateway's. Ack it so the
	// gateway does not retry forever.
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"resultCode":"0000","resultMsg":"ok"}`, w.Body.String())
}

func TestWebhookConcurrentDuplicatesSettleOnce(t *testing.T) {
	router, repo := newWebhookTestServer(t, WebhookConfig{Secret: testWebhookSecret})

	intent := seedIntent(t, repo, domain.StatusAwaitingRedirect)
	body := webhookBody(intent.TrackID, "TRX107", "0000", "20260830150000")
	sig := ComputeSignature(testWebhookSecret, body)

	const deliveries = 10
	done := make(chan int, deliveries)
	for i := 0; i < deliveries; i++ {
		go func() {
			w := postWebhook(router, body, sig)
			done <- w.Code
		}()
	}
	for i := 0; i < deliveries; i++ {
		code := <-done
		assert.Equal(t, http.StatusOK, code, fmt.Sprintf("delivery %d", i))
	}

	got, err := repo.GetIntent(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSettled, got.Status)
}
