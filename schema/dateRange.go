package schema

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange a requested range or count that can never be satisfied
var ErrInvalidRange = errors.New("invalid range")

// DateRange inclusive range of instants used to query the record store
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewDateRange(start time.Time, end time.Time) (DateRange, error) {
	r := DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// LastDays returns the range covering the n calendar days ending with asOf's day.
// The end is the last instant of asOf's day so that every observation of that day matches.
func LastDays(asOf time.Time, n int, loc *time.Location) (DateRange, error) {
	if n <= 0 {
		return DateRange{}, fmt.Errorf("%w: day count must be positive, got %d", ErrInvalidRange, n)
	}
	end := EndOfDay(asOf, loc)
	start := StartOfDay(asOf, loc).AddDate(0, 0, -(n - 1))
	return DateRange{Start: start, End: end}, nil
}

func (d DateRange) Validate() error {
	if d.Start.IsZero() || d.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidRange)
	}
	if d.Start.After(d.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, d.Start.Format(time.RFC3339), d.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t is within the range, bounds included
func (d DateRange) Contains(t time.Time) bool {
	return !t.Before(d.Start) && !t.After(d.End)
}
