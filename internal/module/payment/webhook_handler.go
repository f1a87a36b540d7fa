package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plic/server/internal/module/payment/gateway"
	"github.com/plic/server/internal/utils/metrics"
)

// SignatureHeader carries the gateway's HMAC of the raw request body.
const SignatureHeader = "X-Softment-Signature"

// WebhookConfig controls webhook authentication.
type WebhookConfig struct {
	Secret string

	// AllowUnsigned disables signature verification. Local development
	// only; the server logs loudly on every unsigned delivery.
	AllowUnsigned bool
}

// WebhookHandler receives gateway payment notifications and hands the
// verified payloads to the reconciler. The gateway retries any non-2xx
// ack, so processing failures after authentication still return the ack
// envelope and rely on dedupe for safety.
type WebhookHandler struct {
	reconciler *Reconciler
	cfg        WebhookConfig
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(reconciler *Reconciler, cfg WebhookConfig, m *metrics.Metrics, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
	}
}

// RegisterRoutes registers the webhook routes.
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/softment", h.HandlePaymentWebhook)
}

// ackBody is the acknowledgement envelope the gateway expects. Anything
// else is treated as delivery failure and retried.
var ackBody = gin.H{"resultCode": "0000", "resultMsg": "ok"}

// HandlePaymentWebhook handles an inbound payment notification.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", zap.Error(err))
		h.reject(c, http.StatusBadRequest, "unreadable_body")
		return
	}

	if !h.verifySignature(body, c.GetHeader(SignatureHeader)) {
		h.logger.Warn("webhook signature verification failed",
			zap.String("remote_addr", c.ClientIP()))
		h.reject(c, http.StatusUnauthorized, "bad_signature")
		return
	}

	var payload gateway.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("malformed webhook payload", zap.Error(err))
		h.reject(c, http.StatusBadRequest, "malformed_payload")
		return
	}
	if payload.TrxID == "" || payload.ResultCode == "" {
		h.logger.Warn("webhook payload missing required fields",
			zap.String("trx_id", payload.TrxID),
			zap.String("ord_no", payload.OrdNo))
		h.reject(c, http.StatusBadRequest, "missing_fields")
		return
	}

	outcome, err := h.reconciler.Reconcile(c.Request.Context(), &payload, body)
	if err != nil {
		// Ack anyway: the dedupe record was not written on error paths
		// that matter, and a retry storm helps nobody. The gateway will
		// redeliver and the next attempt can succeed.
		h.logger.Error("webhook reconciliation failed",
			zap.String("trx_id", payload.TrxID),
			zap.Error(err))
	}
	h.observe(outcome)

	c.JSON(http.StatusOK, ackBody)
}

// verifySignature checks the HMAC-SHA256 of the raw body against the
// signature header using a constant-time compare.
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.cfg.AllowUnsigned {
		h.logger.Warn("webhook signature verification DISABLED, accepting unsigned delivery")
		return true
	}
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.cfg.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h *WebhookHandler) reject(c *gin.Context, status int, reason string) {
	if h.metrics != nil {
		h.metrics.WebhooksRejectedTotal.WithLabelValues(reason).Inc()
	}
	c.JSON(status, gin.H{"error": reason})
}

func (h *WebhookHandler) observe(outcome ReconcileOutcome) {
	if h.metrics == nil {
		return
	}
	switch outcome {
	case OutcomeDuplicate:
		h.metrics.WebhooksDuplicateTotal.Inc()
	case OutcomeUnmatched:
		h.metrics.WebhooksUnmatchedTotal.Inc()
	}
	if outcome != "" {
		h.metrics.ReconcileOutcomesTotal.WithLabelValues(string(outcome)).Inc()
		h.metrics.WebhooksReceivedTotal.WithLabelValues(string(outcome)).Inc()
	}
}

// ComputeSignature produces the hex HMAC-SHA256 of body under secret.
// Exported for use by tests and tooling that simulate the gateway.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
