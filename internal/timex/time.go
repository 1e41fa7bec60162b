// Package timex holds the canonical timestamp serialization shared by the
// API and the push payload, plus a JSON-friendly duration type for config
// files.
package timex

import (
	"fmt"
	"time"
)

// TimestampLayout is the only accepted wire format for timestamps:
// microsecond precision, UTC, space-separated date and time, e.g.
// "2013-09-23 23:23:12.123456". Clients must echo watermarks verbatim,
// so a single unambiguous layout keeps the sync cursor stable.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// FormatTimestamp renders t in the canonical layout, normalized to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses s strictly against the canonical layout. Any other
// format (including the legacy seconds-only variant) is rejected.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
