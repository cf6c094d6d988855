package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and CLI format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day at UTC midnight.
type Date struct {
	time.Time
}

var ErrInvalidDate = errors.New("invalid date")

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	// Full timestamps are accepted and truncated to the UTC day.
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*d = DateOf(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FirstDayOfMonth returns the first UTC calendar day of t's month.
func FirstDayOfMonth(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), 1)
}

// LastDayOfMonth returns the last UTC calendar day of t's month.
func LastDayOfMonth(t time.Time) Date {
	t = t.UTC()
	// Day zero of the next month normalizes to the last day of this one.
	return NewDate(t.Year(), int(t.Month())+1, 0)
}

// AddMonths steps n calendar months from the month containing t and returns
// the first day of the resulting month. Stepping from day one keeps short
// months from overflowing into the following month.
func AddMonths(t time.Time, n int) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month())+n, 1)
}

// MonthRange returns the first and last day of t's month.
func MonthRange(t time.Time) (Date, Date) {
	return FirstDayOfMonth(t), LastDayOfMonth(t)
}

// DateRange is an optional start and end bound. A nil bound is open-ended.
type DateRange struct {
	Start *Date
	End   *Date
}

// Contains reports whether d falls inside the inclusive range.
func (r DateRange) Contains(d Date) bool {
	if r.Start != nil && d.Before(r.Start.Time) {
		return false
	}
	if r.End != nil && d.After(r.End.Time) {
		return false
	}
	return true
}
