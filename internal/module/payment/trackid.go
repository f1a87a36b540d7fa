package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/plic/server/internal/utils/random"
)

const (
	dealNumberPrefix  = "PLIC_D"
	cancelTrackPrefix = "PLIC_R"
)

// GenerateDealNumber produces a globally unique track id in the form
// PLIC_DYYYYMMDD_NNNNNXXXX: date, a 5-digit time component and 4 random
// characters. The random suffix keeps concurrent callers within the
// same second from colliding.
func GenerateDealNumber() string {
	now := time.Now().UTC()
	// Seconds since midnight, 5 digits max (86400).
	seq := now.Hour()*3600 + now.Minute()*60 + now.Second()
	suffix := random.UpperAlphaNum(4)
	return fmt.Sprintf("%s%s_%05d%s", dealNumberPrefix, now.Format("20060102"), seq, suffix)
}

// GenerateCancelTrackID derives a cancellation track id from the
// original deal number, PLIC_R<original without prefix>_<random>, so a
// refund is visually correlatable with its charge.
func GenerateCancelTrackID(originalDealNumber string) string {
	base := strings.TrimPrefix(originalDealNumber, dealNumberPrefix)
	suffix := random.UpperAlphaNum(4)
	return fmt.Sprintf("%s%s_%s", cancelTrackPrefix, base, suffix)
}
