package schema

import (
	"fmt"
	"time"
)

const (
	// DayLayout is the calendar day format used for day and week keys
	DayLayout = "2006-01-02"
	// MonthLayout is the calendar month format used for month keys
	MonthLayout = "2006-01"
)

// StartOfDay returns midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last nanosecond of t's calendar day in loc
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek returns the Monday of t's ISO week, at midnight in loc
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	// time.Weekday starts on Sunday, shift so that Monday is 0
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// DayKey formats t as YYYY-MM-DD in loc
func DayKey(t time.Time, loc *time.Location) string {
	return StartOfDay(t, loc).Format(DayLayout)
}

// WeekKey is the day key of the Monday starting t's week
func WeekKey(t time.Time, loc *time.Location) string {
	return StartOfWeek(t, loc).Format(DayLayout)
}

// MonthKey formats t as YYYY-MM in loc
func MonthKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(MonthLayout)
}

// ParseDay parses a YYYY-MM-DD day or an RFC3339 instant.
// A plain day is midnight in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DayLayout, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD or RFC3339", ErrInvalidRange, value)
	}
	return t, nil
}

// ParseDayEnd same as ParseDay but a plain day is its last instant in loc
func ParseDayEnd(value string, loc *time.Location) (time.Time, error) {
	t, err := ParseDay(value, loc)
	if err != nil {
		return t, err
	}
	if _, errDay := time.Parse(DayLayout, value); errDay == nil {
		return EndOfDay(t, loc), nil
	}
	return t, nil
}
