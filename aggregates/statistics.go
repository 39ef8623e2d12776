package aggregates

import (
	"math"
	"time"

	"github.com/mdblp/mood-analytics/schema"
)

// Statistics overall figures of an observation list
type Statistics struct {
	TotalEntries int                     `json:"totalEntries"`
	Averages     Averages                `json:"averages"`
	MinMood      int                     `json:"minMood"`
	MaxMood      int                     `json:"maxMood"`
	MoodStdDev   float64                 `json:"moodStdDev"`
	MoodTypes    map[schema.MoodType]int `json:"moodTypes"`
	FirstEntry   *time.Time              `json:"firstEntry,omitempty"`
	LastEntry    *time.Time              `json:"lastEntry,omitempty"`
}

// Summarize computes the overall statistics, a zero value with an empty
// mood type distribution when there is no observation
func Summarize(observations []schema.MoodObservation) Statistics {
	stats := Statistics{MoodTypes: make(map[schema.MoodType]int)}
	if len(observations) == 0 {
		return stats
	}

	all := newBucket("")
	var first, last time.Time
	stats.MinMood = observations[0].MoodScore
	stats.MaxMood = observations[0].MoodScore
	for _, o := range observations {
		all.add(o)
		if o.MoodScore < stats.MinMood {
			stats.MinMood = o.MoodScore
		}
		if o.MoodScore > stats.MaxMood {
			stats.MaxMood = o.MoodScore
		}
		if first.IsZero() || o.Timestamp.Before(first) {
			first = o.Timestamp
		}
		if last.IsZero() || o.Timestamp.After(last) {
			last = o.Timestamp
		}
	}
	stats.TotalEntries = all.Count
	stats.Averages = all.averages()
	stats.MoodTypes = all.MoodTypes

	// population standard deviation around the unrounded mean
	mean := float64(all.Sums.MoodScore) / float64(all.Count)
	var squares float64
	for _, o := range observations {
		d := float64(o.MoodScore) - mean
		squares += d * d
	}
	stats.MoodStdDev = Round1(math.Sqrt(squares / float64(all.Count)))

	first, last = first.UTC(), last.UTC()
	stats.FirstEntry = &first
	stats.LastEntry = &last
	return stats
}
