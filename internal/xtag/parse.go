package xtag

import (
	"strings"
	"time"
)

// Date and time layouts accepted from trigger fields, tried in order.
// First match wins. Month abbreviations in the dd-MMM forms arrive in
// arbitrary case ("FEB", "Feb") and are normalized before parsing.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-Jan-2006",
	"02-Jan-06",
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"15:04:05",
}

// auditLayout is the fixed high-precision layout used by exactly one audit
// timestamp field, parsed independently of the fallback chains.
const auditLayout = "20060102150405.000000000"

// ParseDate parses a date string against the accepted pattern chain,
// discarding any time part. Returns nil when no pattern matches.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	normalized := normalizeMonthAbbrev(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// ParseTime parses a time-of-day string, discarding any date part.
// Returns nil when no pattern matches.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			tt := time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
			return &tt
		}
	}
	return nil
}

// ParseAuditTimestamp parses the fixed yyyyMMddHHmmss.SSSSSSSSS layout used
// by the audit timestamp field. Returns nil when the value does not match.
func ParseAuditTimestamp(s string) *time.Time {
	t, err := time.Parse(auditLayout, strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &t
}

// CombineDateTime merges a date and an optional time-of-day into a single
// timestamp. A nil time defaults to midnight. A nil date yields nil.
func CombineDateTime(date, tod *time.Time) *time.Time {
	if date == nil {
		return nil
	}
	if tod == nil {
		return date
	}
	combined := time.Date(date.Year(), date.Month(), date.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC)
	return &combined
}

// normalizeMonthAbbrev upper-cases the first letter and lower-cases the rest
// of a dd-MMM-yy(yy) month token so Go's case-sensitive layout matching
// accepts "14-FEB-2019" and "14-feb-19".
func normalizeMonthAbbrev(s string) string {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[1]) != 3 {
		return s
	}
	month := strings.ToUpper(parts[1][:1]) + strings.ToLower(parts[1][1:])
	return parts[0] + "-" + month + "-" + parts[2]
}

// london is loaded once at startup; the zone database ships with the runtime.
var london = mustLoadLondon()

func mustLoadLondon() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		panic("xtag: Europe/London zone data unavailable: " + err.Error())
	}
	return loc
}

// AdjustEnqueueTime corrects the trigger layer's timestamp quirk: enqueue
// times are stamped in British Summer Time year-round. The wall-clock is
// interpreted in the London zone; if that instant is not in daylight-saving
// time the stamp is an hour ahead of reality and one hour is subtracted.
// Wall-clocks inside the spring-forward gap resolve to the instant after the
// transition and are left unchanged.
func AdjustEnqueueTime(wall time.Time) time.Time {
	resolved := time.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), london)
	if resolved.IsDST() {
		return wall
	}
	return wall.Add(-time.Hour)
}
