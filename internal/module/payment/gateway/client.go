package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Config holds gateway client configuration.
type Config struct {
	APIURL string
	PayKey string

	RequestTimeout time.Duration
	CancelTimeout  time.Duration
	StatusTimeout  time.Duration
}

// Client issues outbound operations against the card payment gateway.
// Every response carries a resCode the caller interprets via Classify;
// transport failures surface as retryable pseudo-codes rather than Go
// errors so all failures flow through one classification table.
type Client struct {
	baseURL string
	payKey  string

	requestTimeout time.Duration
	cancelTimeout  time.Duration
	statusTimeout  time.Duration

	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *zap.Logger
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("gateway circuit open")

// NewClient creates a new gateway client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = 30 * time.Second
	}
	cancelTimeout := cfg.CancelTimeout
	if cancelTimeout == 0 {
		cancelTimeout = 60 * time.Second
	}
	statusTimeout := cfg.StatusTimeout
	if statusTimeout == 0 {
		statusTimeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name: "payment-gateway",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 60 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway circuit state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL:        cfg.APIURL,
		payKey:         cfg.PayKey,
		requestTimeout: requestTimeout,
		cancelTimeout:  cancelTimeout,
		statusTimeout:  statusTimeout,
		httpClient:     &http.Client{},
		breaker:        breaker,
		logger:         logger,
	}
}

// --- Wire payloads. The gateway wants amounts as strings. ---

type createPaymentWire struct {
	TrackID       string         `json:"trackId"`
	Amount        string         `json:"amount"`
	ReturnURL     string         `json:"returnUrl"`
	GoodsName     string         `json:"goodsName"`
	PayerName     string         `json:"payerName"`
	PayerEmail    string         `json:"payerEmail"`
	PayerTel      string         `json:"payerTel"`
	Device        string         `json:"device"`
	ShopValueInfo *ShopValueInfo `json:"shopValueInfo,omitempty"`
}

type createBillingKeyWire struct {
	TrackID       string         `json:"trackId"`
	ReturnURL     string         `json:"returnUrl"`
	PayerName     string         `json:"payerName"`
	PayerEmail    string         `json:"payerEmail"`
	PayerTel      string         `json:"payerTel"`
	Device        string         `json:"device"`
	ShopValueInfo *ShopValueInfo `json:"shopValueInfo,omitempty"`
}

type cancelPaymentWire struct {
	TrackID   string `json:"trackId"`
	RootTrxID string `json:"rootTrxId"`
	Amount    string `json:"amount"`
}

type statusWire struct {
	TrxID string `json:"trxId"`
}

// CreatePayment registers a one-time payment session and returns the
// auth page URL and gateway transaction id.
func (c *Client) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*Response[SessionResult], error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.Amount)
	}
	if req.TrackID == "" {
		return nil, errors.New("trackId is required")
	}

	wire := createPaymentWire{
		TrackID:       req.TrackID,
		Amount:        strconv.FormatInt(req.Amount, 10),
		ReturnURL:     req.ReturnURL,
		GoodsName:     req.GoodsName,
		PayerName:     req.Payer.Name,
		PayerEmail:    req.Payer.Email,
		PayerTel:      req.Payer.Tel,
		Device:        string(req.Device),
		ShopValueInfo: req.ShopValueInfo,
	}
	return call[SessionResult](ctx, c, "createPayment", "/api/webpay/create", wire, c.requestTimeout)
}

// CreateBillingKey registers a card-on-file session. Same shape as
// CreatePayment but no immediate charge.
func (c *Client) CreateBillingKey(ctx context.Context, req *CreateBillingKeyRequest) (*Response[SessionResult], error) {
	if req.TrackID == "" {
		return nil, errors.New("trackId is required")
	}

	wire := createBillingKeyWire{
		TrackID:       req.TrackID,
		ReturnURL:     req.ReturnURL,
		PayerName:     req.Payer.Name,
		PayerEmail:    req.Payer.Email,
		PayerTel:      req.Payer.Tel,
		Device:        string(req.Device),
		ShopValueInfo: req.ShopValueInfo,
	}
	return call[SessionResult](ctx, c, "createBillingKey", "/api/billkey/create", wire, c.requestTimeout)
}

// CancelPayment reverses an approved transaction, partially or fully.
func (c *Client) CancelPayment(ctx context.Context, req *CancelPaymentRequest) (*Response[CancelResult], error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.Amount)
	}
	if req.RootTrxID == "" {
		return nil, errors.New("rootTrxId is required")
	}

	wire := cancelPaymentWire{
		TrackID:   req.TrackID,
		RootTrxID: req.RootTrxID,
		Amount:    strconv.FormatInt(req.Amount, 10),
	}
	return call[CancelResult](ctx, c, "cancelPayment", "/api/refund", wire, c.cancelTimeout)
}

// GetStatus queries the gateway-side state of a transaction. Used for
// reconciliation when a webhook is delayed or lost.
func (c *Client) GetStatus(ctx context.Context, trxID string) (*Response[StatusResult], error) {
	if trxID == "" {
		return nil, errors.New("trxId is required")
	}
	return call[StatusResult](ctx, c, "getStatus", "/api/trxStatus", statusWire{TrxID: trxID}, c.statusTimeout)
}

// call posts the body and decodes the envelope. Transport failures are
// folded into the envelope as pseudo-codes so the caller always gets a
// classifiable response; only request-building and breaker-open
// conditions return a Go error.
func call[T any](ctx context.Context, c *Client, operation, endpoint string, body any, timeout time.Duration) (*Response[T], error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", operation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.post(ctx, endpoint, payload)
	})
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, operation)
		}

		resCode := ResCodeNetworkError
		msg := "network error reaching gateway"
		if isTimeout(err) {
			resCode = ResCodeTimeout
			msg = "gateway request timed out"
		}
		c.logger.Warn("gateway call failed",
			zap.String("operation", operation),
			zap.String("res_code", resCode),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return &Response[T]{Success: false, ResCode: resCode, Message: msg}, nil
	}

	var resp Response[T]
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", operation, err)
	}

	c.logger.Debug("gateway call completed",
		zap.String("operation", operation),
		zap.String("res_code", resp.ResCode),
		zap.Duration("elapsed", elapsed),
	)
	return &resp, nil
}

// post sends one request. A non-200 status is folded into an envelope
// with an HTTP_<status> pseudo-code by returning the synthesized body.
func (c *Client) post(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.payKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		synth, _ := json.Marshal(map[string]any{
			"success": false,
			"resCode": fmt.Sprintf("HTTP_%d", resp.StatusCode),
			"message": fmt.Sprintf("gateway returned HTTP %d", resp.StatusCode),
		})
		return synth, nil
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf.Bytes(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
