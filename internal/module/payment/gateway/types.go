package gateway

// DeviceType distinguishes the payer's terminal for the auth page.
type DeviceType string

const (
	DevicePC     DeviceType = "pc"
	DeviceMobile DeviceType = "mobile"
)

// ShopValueInfo carries opaque merchant fields the gateway echoes back
// on the return URL and in webhooks.
type ShopValueInfo struct {
	Value1 string `json:"value1,omitempty"`
	Value2 string `json:"value2,omitempty"`
	Value3 string `json:"value3,omitempty"`
}

// PayerInfo holds the optional payer metadata sent with a session.
type PayerInfo struct {
	Name  string `json:"payerName"`
	Email string `json:"payerEmail"`
	Tel   string `json:"payerTel"`
}

// CreatePaymentRequest registers a one-time payment session.
type CreatePaymentRequest struct {
	TrackID       string         `json:"trackId"`
	Amount        int64          `json:"-"`
	ReturnURL     string         `json:"returnUrl"`
	GoodsName     string         `json:"goodsName"`
	Payer         PayerInfo      `json:"-"`
	Device        DeviceType     `json:"device"`
	ShopValueInfo *ShopValueInfo `json:"shopValueInfo,omitempty"`
}

// CreateBillingKeyRequest registers a card-on-file session. No charge
// is made; the gateway issues a billing key on completion.
type CreateBillingKeyRequest struct {
	TrackID       string         `json:"trackId"`
	ReturnURL     string         `json:"returnUrl"`
	Payer         PayerInfo      `json:"-"`
	Device        DeviceType     `json:"device"`
	ShopValueInfo *ShopValueInfo `json:"shopValueInfo,omitempty"`
}

// CancelPaymentRequest reverses an approved transaction, in part or in full.
type CancelPaymentRequest struct {
	TrackID   string `json:"trackId"`
	RootTrxID string `json:"rootTrxId"`
	Amount    int64  `json:"-"`
}

// SessionResult is the payload of a successful create call.
type SessionResult struct {
	AuthPageURL string `json:"authPageUrl"`
	ApprovalURL string `json:"approvalUrl"`
	TrackID     string `json:"trackId"`
	TrxID       string `json:"trxId"`
}

// CardInfo is the payment-instrument metadata the gateway returns.
type CardInfo struct {
	CardNo         string `json:"cardNo"` // masked
	Issuer         string `json:"issuer"`
	IssuerCode     string `json:"issuerCode"`
	Acquirer       string `json:"acquirer"`
	AcquirerCode   string `json:"acquirerCode"`
	Installment    string `json:"installment"`
	CardType       string `json:"cardType"`
	PartCancelUsed string `json:"partCancelUsed"`
}

// CancelResult is the payload of a successful cancel call.
type CancelResult struct {
	TrxID        string `json:"trxId"`
	AuthCd       string `json:"authCd"`
	RefundDate   string `json:"refundDate"`
	TrackID      string `json:"trackId"`
	RootTrxID    string `json:"rootTrxId"`
	RootTrackID  string `json:"rootTrackId"`
	Amount       string `json:"amount"`
	RemainAmount string `json:"remainAmount"`
}

// TrxStatus is the gateway-side transaction state returned by GetStatus.
type TrxStatus string

const (
	TrxWaiting          TrxStatus = "WAITING"
	TrxApproved         TrxStatus = "APPROVED"
	TrxPartialCancelled TrxStatus = "PARTIAL_CANCELLED"
	TrxCancelled        TrxStatus = "CANCELLED"
)

// StatusResult is the payload of a successful status query.
type StatusResult struct {
	TrxID        string    `json:"trxId"`
	TrxType      string    `json:"trxType"`
	Status       TrxStatus `json:"status"`
	StatusMsg    string    `json:"statusMsg"`
	TrackID      string    `json:"trackId"`
	Amount       string    `json:"amount"`
	RdfAmount    string    `json:"rdfAmount"`    // refunded to date
	RemainAmount string    `json:"remainAmount"` // still refundable
	TrxDate      string    `json:"transactionDate"`
	PayInfo      struct {
		AuthCd   string   `json:"authCd"`
		CardInfo CardInfo `json:"cardInfo"`
	} `json:"payInfo"`
}

// Response is the envelope every gateway endpoint returns.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ResCode string `json:"resCode"`
	Data    *T     `json:"data,omitempty"`
}

// Classify classifies the envelope's result code.
func (r *Response[T]) Classify() Classification {
	return Classify(r.ResCode)
}

// WebhookPayload is the body of an inbound gateway notification.
type WebhookPayload struct {
	TrxID      string `json:"trxId"`
	OrdNo      string `json:"ordNo"` // echo of the track id
	ResultCode string `json:"resultCode"`
	ResultMsg  string `json:"resultMsg"`
	GoodsAmt   string `json:"goodsAmt"`
	PayType    string `json:"payType"`
	CardCd     string `json:"cardCd"`
	CardNo     string `json:"cardNo"`
	ApprovalNo string `json:"approvalNo"`
	ApprovalDt string `json:"approvalDt"`
}

// DedupeKey derives the redelivery-stable key for this notification.
// The gateway retries with the same trxId and approvalDt, so the pair
// identifies one physical event.
func (p *WebhookPayload) DedupeKey() string {
	return p.TrxID + ":" + p.ApprovalDt
}
