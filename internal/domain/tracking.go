package domain

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const trackingPrefix = "PRCL"

// GenerateTrackingID produces a human-readable tracking code of the
// form PRCL-<YYYYMMDD>-<6 uppercase hex chars>, with the date in UTC
// and the suffix drawn from crypto/rand.
//
// Uniqueness is a soft guarantee: three random bytes leave a small
// collision window and no store-level constraint backs this field.
// Widen the suffix or check against the order store if a hard
// guarantee is ever required.
func GenerateTrackingID(now time.Time) (string, error) {
	var buf [3]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	date := now.UTC().Format("20060102")
	suffix := strings.ToUpper(fmt.Sprintf("%x", buf))

	return fmt.Sprintf("%s-%s-%s", trackingPrefix, date, suffix), nil
}
