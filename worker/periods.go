package worker

import (
	"fmt"
	"strings"
	"time"
)

// PeriodKey names the digest period a record lands in: "2006-01-02" for
// daily, "YYYY-Www" ISO week for weekly.
func PeriodKey(freq string, t time.Time) string {
	utc := t.UTC()
	switch strings.ToLower(freq) {
	case "weekly":
		y, w := utc.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	default: // daily
		return utc.Format("2006-01-02")
	}
}

// tooOld reports whether a published timestamp falls outside the collector
// freshness window. Unknown timestamps are kept.
func tooOld(published time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 || published.IsZero() {
		return false
	}
	return time.Since(published) > maxAge
}
