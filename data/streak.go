package data

import (
	"sort"
	"time"

	"github.com/mdblp/mood-analytics/schema"
)

// daySet distinct calendar days, in loc, holding at least one observation
func daySet(observations []schema.MoodObservation, loc *time.Location) map[string]struct{} {
	days := make(map[string]struct{}, len(observations))
	for _, o := range observations {
		days[schema.DayKey(o.Timestamp, loc)] = struct{}{}
	}
	return days
}

// ComputeStreak counts the consecutive calendar days with at least one observation,
// walking backward from asOf's day. Days are computed in asOf's location.
// Returns 0 when asOf's day has no observation.
func ComputeStreak(observations []schema.MoodObservation, asOf time.Time) int {
	loc := asOf.Location()
	days := daySet(observations, loc)
	streak := 0
	for day := schema.StartOfDay(asOf, loc); ; day = day.AddDate(0, 0, -1) {
		if _, found := days[day.Format(schema.DayLayout)]; !found {
			return streak
		}
		streak++
	}
}

// LongestStreak the longest run of consecutive calendar days found in the data
func LongestStreak(observations []schema.MoodObservation, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	keys := make([]string, 0, len(observations))
	for key := range daySet(observations, loc) {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	longest, current := 0, 0
	var previous time.Time
	for _, key := range keys {
		day, _ := time.ParseInLocation(schema.DayLayout, key, loc)
		if current > 0 && previous.AddDate(0, 0, 1).Equal(day) {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
		previous = day
	}
	return longest
}
