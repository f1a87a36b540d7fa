package gateway

// Outcome classifies a gateway result code.
type Outcome int

const (
	// OutcomeSuccess is the gateway's canonical approval.
	OutcomeSuccess Outcome = iota
	// OutcomeRetryable covers transient failures; the same operation may
	// succeed if resubmitted.
	OutcomeRetryable
	// OutcomeTerminal covers declines and every unrecognized code. The
	// track id used for a terminal failure must not be reused.
	OutcomeTerminal
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	default:
		return "terminal"
	}
}

// Classification is the result of classifying a gateway result code.
type Classification struct {
	Code    string
	Outcome Outcome
	Message string
}

// IsSuccess returns true for the gateway's single success code.
func (c Classification) IsSuccess() bool { return c.Outcome == OutcomeSuccess }

// IsRetryable returns true if the operation may be resubmitted.
func (c Classification) IsRetryable() bool { return c.Outcome == OutcomeRetryable }

// ResCodeSuccess is the only result code the gateway uses for approval.
const ResCodeSuccess = "0000"

// Pseudo-codes the client synthesizes for transport-level failures.
// The gateway never sends these; they exist so callers classify every
// failure through the same table.
const (
	ResCodeTimeout      = "TIMEOUT"
	ResCodeNetworkError = "NETWORK_ERROR"
)

// defaultFailureMessage is returned for codes the table does not know.
const defaultFailureMessage = "unknown gateway error"

// resultMessages maps known result codes to operator-facing messages.
var resultMessages = map[string]string{
	ResCodeSuccess:      "approved",
	ResCodeTimeout:      "gateway request timed out",
	ResCodeNetworkError: "network error reaching gateway",
	"1001":              "invalid merchant key",
	"1002":              "merchant not permitted for this operation",
	"2001":              "invalid request parameter",
	"2002":              "duplicate track id",
	"2003":              "transaction not found",
	"2004":              "cancel amount exceeds remaining amount",
	"3001":              "card declined by issuer",
	"3002":              "card limit exceeded",
	"3003":              "suspended or invalid card",
	"3004":              "billing key expired or revoked",
	"5001":              "gateway busy, retry later",
	"5002":              "issuer temporarily unavailable",
	"9999":              "internal gateway error",
}

// retryableCodes is the closed set of failures worth resubmitting.
var retryableCodes = map[string]bool{
	ResCodeTimeout:      true,
	ResCodeNetworkError: true,
	"5001":              true,
	"5002":              true,
}

// Classify maps a gateway result code to an outcome and message. It is
// total: any input, including empty or garbage strings, yields a
// terminal classification with a non-empty message.
func Classify(resCode string) Classification {
	if resCode == ResCodeSuccess {
		return Classification{Code: resCode, Outcome: OutcomeSuccess, Message: resultMessages[resCode]}
	}

	msg, known := resultMessages[resCode]
	if !known {
		msg = httpStatusMessage(resCode)
	}

	if retryableCodes[resCode] || retryableHTTPCode(resCode) {
		return Classification{Code: resCode, Outcome: OutcomeRetryable, Message: msg}
	}
	return Classification{Code: resCode, Outcome: OutcomeTerminal, Message: msg}
}

// httpStatusMessage handles the HTTP_<status> pseudo-codes the client
// synthesizes for non-200 gateway responses.
func httpStatusMessage(resCode string) string {
	switch resCode {
	case "HTTP_401":
		return "gateway authentication failed, check pay key"
	case "HTTP_403":
		return "gateway access denied"
	case "HTTP_404":
		return "gateway endpoint not found"
	case "HTTP_500", "HTTP_502", "HTTP_503", "HTTP_504":
		return "gateway server error"
	default:
		return defaultFailureMessage
	}
}

// retryableHTTPCode treats gateway-side 5xx responses as transient.
func retryableHTTPCode(resCode string) bool {
	switch resCode {
	case "HTTP_500", "HTTP_502", "HTTP_503", "HTTP_504":
		return true
	default:
		return false
	}
}
