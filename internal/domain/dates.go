package domain

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used by every timestamp.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date in UTC.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// DaysBetween returns the whole calendar days from start to end (negative
// when end precedes start).
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// FormatDate renders t as an ISO calendar date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Moment is the date a command declares. A zero Moment means the command
// carried no timestamp and time-driven work is skipped.
type Moment struct {
	Raw  string
	Date time.Time
}

// NewMoment parses raw; an empty string yields the zero Moment.
func NewMoment(raw string) (Moment, error) {
	if raw == "" {
		return Moment{}, nil
	}
	date, err := ParseDate(raw)
	if err != nil {
		return Moment{}, err
	}
	return Moment{Raw: raw, Date: date}, nil
}

// IsZero reports whether no timestamp was supplied.
func (m Moment) IsZero() bool {
	return m.Raw == ""
}
