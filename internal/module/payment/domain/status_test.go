package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusInitiated.IsTerminal())
	assert.False(t, StatusAwaitingRedirect.IsTerminal())
	assert.True(t, StatusSettled.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    IntentStatus
		to      IntentStatus
		allowed bool
	}{
		{"initiated to awaiting redirect", StatusInitiated, StatusAwaitingRedirect, true},
		{"initiated to settled", StatusInitiated, StatusSettled, true},
		{"initiated to failed", StatusInitiated, StatusFailed, true},
		{"awaiting redirect to settled", StatusAwaitingRedirect, StatusSettled, true},
		{"awaiting redirect to failed", StatusAwaitingRedirect, StatusFailed, true},
		{"awaiting redirect back to initiated", StatusAwaitingRedirect, StatusInitiated, false},
		{"settled is frozen", StatusSettled, StatusFailed, false},
		{"failed is frozen", StatusFailed, StatusSettled, false},
		{"settled cannot self-loop", StatusSettled, StatusSettled, false},
		{"unknown status transitions nowhere", IntentStatus("bogus"), StatusSettled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}
