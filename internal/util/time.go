package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SnowTimeLayout is the datetime format the Table API returns for glide
// date-time fields. Values carry no zone marker; the instance reports them
// in its system timezone, so they are parsed as UTC and only ever compared
// against each other.
const SnowTimeLayout = "2006-01-02 15:04:05"

// ParseSnowTime parses a ServiceNow datetime string. Returns the zero time
// for empty or malformed values; callers treat that as "no timestamp".
func ParseSnowTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(SnowTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatSnowTime renders a time in the Table API query format.
func FormatSnowTime(t time.Time) string {
	return t.UTC().Format(SnowTimeLayout)
}

// ParseSeconds parses a numeric elapsed-time field. ServiceNow reports
// precomputed durations as seconds, sometimes with a decimal fraction and
// sometimes with thousands separators in display values.
func ParseSeconds(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// FormatSeconds renders a duration in seconds for report output.
func FormatSeconds(seconds float64) string {
	if seconds >= 60 {
		return fmt.Sprintf("%.2fs (%.2f min)", seconds, seconds/60)
	}
	return fmt.Sprintf("%.2fs", seconds)
}
