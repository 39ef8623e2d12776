package aggregates

import (
	"errors"
	"testing"
	"time"

	"github.com/mdblp/mood-analytics/schema"
	"github.com/stretchr/testify/assert"
)

func observation(id string, ts time.Time, mood int, sleep float64, moodType schema.MoodType) schema.MoodObservation {
	return schema.MoodObservation{
		ID:         id,
		UserID:     "user1",
		Timestamp:  ts,
		MoodScore:  mood,
		MoodType:   moodType,
		Energy:     5,
		Anxiety:    3,
		Stress:     4,
		SleepHours: sleep,
	}
}

func day(d int, hour int) time.Time {
	return time.Date(2025, time.July, d, hour, 0, 0, 0, time.UTC)
}

func TestAggregate(t *testing.T) {
	observations := []schema.MoodObservation{
		observation("3", day(31, 9), 8, 7, schema.MoodHappy),
		observation("1", day(25, 9), 8, 6.5, schema.MoodHappy),
		observation("2", day(25, 21), 7, 8, schema.MoodCalm),
		observation("4", time.Date(2025, time.August, 1, 9, 0, 0, 0, time.UTC), 4, 5, schema.MoodTired),
	}
	tests := []struct {
		name        string
		granularity Granularity
		wantKeys    []string
		wantCounts  []int
	}{
		{name: "should group by day", granularity: GranularityDay, wantKeys: []string{"2025-07-25", "2025-07-31", "2025-08-01"}, wantCounts: []int{2, 1, 1}},
		{name: "should group by monday of the week", granularity: GranularityWeek, wantKeys: []string{"2025-07-21", "2025-07-28"}, wantCounts: []int{2, 2}},
		{name: "should group by month", granularity: GranularityMonth, wantKeys: []string{"2025-07", "2025-08"}, wantCounts: []int{3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := Aggregate(observations, tt.granularity)
			keys := make([]string, len(buckets))
			counts := make([]int, len(buckets))
			for i, b := range buckets {
				keys[i] = b.Key
				counts[i] = b.Count
			}
			assert.Equal(t, tt.wantKeys, keys)
			assert.Equal(t, tt.wantCounts, counts)
		})
	}
}

func TestAggregate_Averages(t *testing.T) {
	observations := []schema.MoodObservation{
		observation("1", day(25, 9), 8, 6.5, schema.MoodHappy),
		observation("2", day(25, 12), 7, 8, schema.MoodCalm),
		observation("3", day(25, 21), 7, 7, schema.MoodHappy),
	}
	buckets := Aggregate(observations, GranularityDay)
	assert.Len(t, buckets, 1)
	b := buckets[0]
	assert.Equal(t, 22, b.Sums.MoodScore)
	assert.Equal(t, 21.5, b.Sums.SleepHours)
	// 22/3 = 7.333 and 21.5/3 = 7.1666
	assert.Equal(t, 7.3, b.Averages.MoodScore)
	assert.Equal(t, 7.2, b.Averages.SleepHours)
	assert.Equal(t, 5.0, b.Averages.Energy)
	assert.Equal(t, map[schema.MoodType]int{schema.MoodHappy: 2, schema.MoodCalm: 1}, b.MoodTypes)
}

func TestAggregate_Completeness(t *testing.T) {
	var observations []schema.MoodObservation
	for i := 0; i < 40; i++ {
		observations = append(observations, observation("id", day(1, 0).Add(time.Duration(i)*17*time.Hour), 1+i%10, 7, schema.MoodNeutral))
	}
	for _, g := range []Granularity{GranularityDay, GranularityWeek, GranularityMonth} {
		total := 0
		for _, b := range Aggregate(observations, g) {
			total += b.Count
		}
		assert.Equal(t, len(observations), total, "granularity %s", g)
	}
}

func TestAggregate_Empty(t *testing.T) {
	buckets := Aggregate(nil, GranularityWeek)
	assert.NotNil(t, buckets)
	assert.Empty(t, buckets)
}

func TestAggregate_IndependentOfOrder(t *testing.T) {
	a := observation("1", day(25, 9), 8, 6.5, schema.MoodHappy)
	b := observation("2", day(26, 9), 3, 4, schema.MoodSad)
	c := observation("3", day(25, 10), 6, 7, schema.MoodCalm)
	assert.Equal(t,
		Aggregate([]schema.MoodObservation{a, b, c}, GranularityDay),
		Aggregate([]schema.MoodObservation{c, b, a}, GranularityDay))
}

func TestAggregateInLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("timezone database not available: %v", err)
	}
	// 20:00 UTC on the 25th is the 26th in Tokyo
	buckets := AggregateInLocation([]schema.MoodObservation{observation("1", day(25, 20), 8, 7, schema.MoodHappy)}, GranularityDay, tokyo)
	assert.Equal(t, "2025-07-26", buckets[0].Key)
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("")
	assert.NoError(t, err)
	assert.Equal(t, GranularityDay, g)
	g, err = ParseGranularity("month")
	assert.NoError(t, err)
	assert.Equal(t, GranularityMonth, g)
	_, err = ParseGranularity("hour")
	assert.True(t, errors.Is(err, schema.ErrInvalidRange))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 7.6, Round1(7.55))
	assert.Equal(t, -7.6, Round1(-7.55))
	assert.Equal(t, 7.57, Round(53.0/7.0, 2))
	assert.Equal(t, 3.0, Round1(2.96))
}
