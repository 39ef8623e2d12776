package aggregates

import (
	"fmt"
	"sort"
	"time"

	"github.com/mdblp/mood-analytics/schema"
)

// Granularity of the time buckets
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func ParseGranularity(value string) (Granularity, error) {
	switch g := Granularity(value); g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	case "":
		return GranularityDay, nil
	default:
		return "", fmt.Errorf("%w: unknown granularity %q", schema.ErrInvalidRange, value)
	}
}

type (
	// Sums running totals of the numeric metrics of a bucket
	Sums struct {
		MoodScore  int     `json:"moodScore"`
		Energy     int     `json:"energy"`
		Anxiety    int     `json:"anxiety"`
		Stress     int     `json:"stress"`
		SleepHours float64 `json:"sleepHours"`
	}
	// Averages per metric means, rounded to one decimal
	Averages struct {
		MoodScore  float64 `json:"moodScore"`
		Energy     float64 `json:"energy"`
		Anxiety    float64 `json:"anxiety"`
		Stress     float64 `json:"stress"`
		SleepHours float64 `json:"sleepHours"`
	}
	// Bucket aggregate of the observations sharing a day, week or month key
	Bucket struct {
		Key       string                  `json:"period"`
		Count     int                     `json:"count"`
		Sums      Sums                    `json:"sums"`
		Averages  Averages                `json:"averages"`
		MoodTypes map[schema.MoodType]int `json:"moodTypes"`
	}
)

func newBucket(key string) *Bucket {
	return &Bucket{Key: key, MoodTypes: make(map[schema.MoodType]int)}
}

func (b *Bucket) add(o schema.MoodObservation) {
	b.Count++
	b.Sums.MoodScore += o.MoodScore
	b.Sums.Energy += o.Energy
	b.Sums.Anxiety += o.Anxiety
	b.Sums.Stress += o.Stress
	b.Sums.SleepHours += o.SleepHours
	if o.MoodType != "" {
		b.MoodTypes[o.MoodType]++
	}
}

// averages never called on an empty bucket, those are not emitted
func (b *Bucket) averages() Averages {
	n := float64(b.Count)
	return Averages{
		MoodScore:  Round1(float64(b.Sums.MoodScore) / n),
		Energy:     Round1(float64(b.Sums.Energy) / n),
		Anxiety:    Round1(float64(b.Sums.Anxiety) / n),
		Stress:     Round1(float64(b.Sums.Stress) / n),
		SleepHours: Round1(b.Sums.SleepHours / n),
	}
}

// KeyFor returns the bucket key of t for the granularity, in loc
func KeyFor(t time.Time, granularity Granularity, loc *time.Location) string {
	switch granularity {
	case GranularityWeek:
		return schema.WeekKey(t, loc)
	case GranularityMonth:
		return schema.MonthKey(t, loc)
	default:
		return schema.DayKey(t, loc)
	}
}

// Aggregate groups observations into UTC calendar buckets, ascending by key
func Aggregate(observations []schema.MoodObservation, granularity Granularity) []Bucket {
	return AggregateInLocation(observations, granularity, time.UTC)
}

// AggregateInLocation same as Aggregate with calendar keys computed in loc.
// Keys are fixed width strings so the lexical order is the chronological one.
func AggregateInLocation(observations []schema.MoodObservation, granularity Granularity, loc *time.Location) []Bucket {
	byKey := make(map[string]*Bucket)
	for _, o := range observations {
		key := KeyFor(o.Timestamp, granularity, loc)
		b, found := byKey[key]
		if !found {
			b = newBucket(key)
			byKey[key] = b
		}
		b.add(o)
	}

	buckets := make([]Bucket, 0, len(byKey))
	for _, b := range byKey {
		b.Averages = b.averages()
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Key < buckets[j].Key
	})
	return buckets
}
