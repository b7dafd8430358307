// Package kobo holds the JSON shapes of the Kobo device sync protocol and
// the translation from backend responses into them. Field casing and the
// timestamp format are dictated by the device firmware; do not tidy them.
package kobo

import (
	"fmt"
	"time"
)

// FormatMillis renders a unix-milliseconds timestamp the way the device
// expects: RFC3339 with a 7-digit fractional second.
func FormatMillis(millis int64) string {
	t := time.UnixMilli(millis).UTC()
	return fmt.Sprintf("%s.%07dZ", t.Format("2006-01-02T15:04:05"), t.Nanosecond()/100)
}

// NowString is FormatMillis of the current time.
func NowString() string {
	return FormatMillis(time.Now().UnixMilli())
}
