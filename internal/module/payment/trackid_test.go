package payment

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateDealNumber_Format(t *testing.T) {
	re := regexp.MustCompile(`^PLIC_D\d{8}_\d{5}[A-Z0-9]{4}$`)
	for i := 0; i < 100; i++ {
		dn := GenerateDealNumber()
		assert.Regexp(t, re, dn)
	}
}

func TestGenerateDealNumber_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		dn := GenerateDealNumber()
		assert.False(t, seen[dn], "duplicate deal number %s", dn)
		seen[dn] = true
	}
}

func TestGenerateCancelTrackID(t *testing.T) {
	orig := "PLIC_D20260101_00001AB12"
	id := GenerateCancelTrackID(orig)

	assert.True(t, strings.HasPrefix(id, "PLIC_R20260101_00001AB12_"))
	assert.NotEqual(t, GenerateCancelTrackID(orig), id, "random suffix differs per call")
}

func TestGenerateCancelTrackID_ForeignDealNumber(t *testing.T) {
	// Track ids not in our format still yield a distinguishable id.
	id := GenerateCancelTrackID("EXT-42")
	assert.True(t, strings.HasPrefix(id, "PLIC_REXT-42_"))
}
