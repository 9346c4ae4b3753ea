package timeutil

import (
	"strings"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30). Field agents and the
// backend both work in IST; timestamps without a zone are read in IST.
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if Asia/Kolkata not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// Now returns the current time in IST
func Now() time.Time {
	return time.Now().In(IST)
}

// ISO formats t as an ISO-8601 timestamp in IST
func ISO(t time.Time) string {
	return t.In(IST).Format(time.RFC3339)
}

// FormatIST formats a time in IST using the given layout
func FormatIST(t time.Time, layout string) string {
	return t.In(IST).Format(layout)
}

// zoned layouts carry their own offset; local layouts are read in IST
var (
	zonedLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999Z0700"}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04",
		DateLayout,
	}
)

// ParseTimestamp accepts the timestamp shapes the backend has produced over
// time. ok is false for empty or unrecognised input.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, IST); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Common layouts for IST formatting
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)
