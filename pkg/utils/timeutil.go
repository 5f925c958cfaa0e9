package utils

import (
	"time"
)

// JST is the Japan Standard Time location (UTC+9).
var JST *time.Location

func init() {
	var err error
	JST, err = time.LoadLocation("Asia/Tokyo")
	if err != nil {
		// Fallback: fixed zone if the tz database is not available
		JST = time.FixedZone("JST", 9*60*60)
	}
}

// NowJST returns the current time in JST.
func NowJST() time.Time {
	return time.Now().In(JST)
}

// ToJST converts a time.Time to JST.
func ToJST(t time.Time) time.Time {
	return t.In(JST)
}

// CompactDate formats a date as YYYYMMDD, the form the TDnet listing
// endpoint keys on.
func CompactDate(t time.Time) string {
	return t.In(JST).Format("20060102")
}

// ISODate formats a date as YYYY-MM-DD, the form the EDINET document
// list endpoint keys on.
func ISODate(t time.Time) string {
	return t.In(JST).Format("2006-01-02")
}

// ParseCompactDate parses a YYYYMMDD string into a JST date.
func ParseCompactDate(s string) (time.Time, error) {
	return time.ParseInLocation("20060102", s, JST)
}

// TrailingDates returns the given day and the previous days-1 calendar
// days, most recent first. Disclosure feeds can lag a day or two behind
// the filing, so company-scoped lookups scan a short trailing window.
func TrailingDates(from time.Time, days int) []time.Time {
	dates := make([]time.Time, 0, days)
	d := from.In(JST)
	for i := 0; i < days; i++ {
		dates = append(dates, d.AddDate(0, 0, -i))
	}
	return dates
}

// IsWeekday reports whether t falls on a business day. EDINET accepts no
// filings on weekends, so date scans skip them.
func IsWeekday(t time.Time) bool {
	wd := t.In(JST).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
