package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		outcome Outcome
	}{
		{"success", "0000", OutcomeSuccess},
		{"timeout pseudo-code", "TIMEOUT", OutcomeRetryable},
		{"network pseudo-code", "NETWORK_ERROR", OutcomeRetryable},
		{"gateway busy", "5001", OutcomeRetryable},
		{"issuer unavailable", "5002", OutcomeRetryable},
		{"http 500", "HTTP_500", OutcomeRetryable},
		{"http 503", "HTTP_503", OutcomeRetryable},
		{"http 401", "HTTP_401", OutcomeTerminal},
		{"card declined", "3001", OutcomeTerminal},
		{"billing key revoked", "3004", OutcomeTerminal},
		{"cancel amount exceeded", "2004", OutcomeTerminal},
		{"internal gateway error", "9999", OutcomeTerminal},
		{"unknown code", "XYZ123", OutcomeTerminal},
		{"empty code", "", OutcomeTerminal},
		{"garbage", "\x00\xff", OutcomeTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.code)
			assert.Equal(t, tt.outcome, c.Outcome)
			assert.Equal(t, tt.code, c.Code)
			assert.NotEmpty(t, c.Message, "every classification carries a message")
		})
	}
}

func TestClassify_SuccessIsExclusive(t *testing.T) {
	// Only the canonical code is a success; near-misses are failures.
	for _, code := range []string{"0", "00", "000", "00000", "0001", " 0000"} {
		c := Classify(code)
		assert.False(t, c.IsSuccess(), "code %q must not classify as success", code)
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "retryable", OutcomeRetryable.String())
	assert.Equal(t, "terminal", OutcomeTerminal.String())
}
