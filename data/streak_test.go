package data

import (
	"testing"
	"time"

	"github.com/mdblp/mood-analytics/schema"
	"github.com/stretchr/testify/assert"
)

func entry(id string, ts time.Time, mood int, sleep float64, activities ...string) schema.MoodObservation {
	return schema.MoodObservation{
		ID:         id,
		UserID:     "user1",
		Timestamp:  ts,
		MoodScore:  mood,
		MoodType:   schema.MoodNeutral,
		Energy:     5,
		Anxiety:    3,
		Stress:     4,
		SleepHours: sleep,
		Activities: activities,
	}
}

func july(d int, hour int) time.Time {
	return time.Date(2025, time.July, d, hour, 0, 0, 0, time.UTC)
}

func TestComputeStreak(t *testing.T) {
	// D=20, entries on D, D-1, D-2 and D-5
	observations := []schema.MoodObservation{
		entry("a", july(20, 8), 7, 7),
		entry("b", july(19, 22), 6, 7),
		entry("c", july(18, 12), 5, 7),
		entry("d", july(18, 13), 5, 7),
		entry("e", july(15, 9), 8, 7),
	}
	tests := []struct {
		name string
		asOf time.Time
		want int
	}{
		{name: "ending today", asOf: july(20, 23), want: 3},
		{name: "no entry today", asOf: july(21, 10), want: 0},
		{name: "from an older day", asOf: july(15, 0), want: 1},
		{name: "from the middle of the run", asOf: july(19, 0), want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStreak(observations, tt.asOf))
		})
	}
}

func TestComputeStreakIgnoresOrder(t *testing.T) {
	observations := []schema.MoodObservation{
		entry("a", july(18, 8), 7, 7),
		entry("b", july(20, 8), 7, 7),
		entry("c", july(19, 8), 7, 7),
	}
	reversed := []schema.MoodObservation{observations[2], observations[1], observations[0]}
	assert.Equal(t, 3, ComputeStreak(observations, july(20, 12)))
	assert.Equal(t, ComputeStreak(observations, july(20, 12)), ComputeStreak(reversed, july(20, 12)))
}

func TestComputeStreakUsesAsOfLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 22:30 UTC on the 19th is already the 20th in Paris
	observations := []schema.MoodObservation{
		entry("a", time.Date(2025, time.July, 19, 22, 30, 0, 0, time.UTC), 7, 7),
		entry("b", july(19, 8), 7, 7),
	}
	assert.Equal(t, 0, ComputeStreak(observations, july(20, 12)))
	assert.Equal(t, 2, ComputeStreak(observations, time.Date(2025, time.July, 20, 12, 0, 0, 0, paris)))
}

func TestComputeStreakEmpty(t *testing.T) {
	assert.Equal(t, 0, ComputeStreak(nil, july(20, 12)))
}

func TestLongestStreak(t *testing.T) {
	observations := []schema.MoodObservation{
		entry("a", july(1, 8), 7, 7),
		entry("b", july(2, 8), 7, 7),
		entry("c", july(5, 8), 7, 7),
		entry("d", july(6, 8), 7, 7),
		entry("e", july(6, 20), 7, 7),
		entry("f", july(7, 8), 7, 7),
		entry("g", time.Date(2025, time.June, 30, 8, 0, 0, 0, time.UTC), 7, 7),
	}
	assert.Equal(t, 3, LongestStreak(observations, nil))
	assert.Equal(t, 0, LongestStreak(nil, time.UTC))
}
