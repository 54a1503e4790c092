package domain

import "time"

// DateLayout is the wire and log representation of calendar dates.
const DateLayout = "2006-01-02"

// DateOf drops the clock part of t, keeping the calendar day in t's location.
// The result is midnight UTC so dates compare and serialize uniformly.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a yyyy-mm-dd string into a calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, WrapError(ErrCodeInvalid, "dates must be formatted yyyy-mm-dd", err)
	}
	return DateOf(t), nil
}

// FormatDate renders a calendar date as yyyy-mm-dd.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
