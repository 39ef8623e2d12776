package data

import (
	"encoding/json"
	"testing"

	"github.com/mdblp/mood-analytics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recommendationTypes(recommendations []Recommendation) []string {
	types := make([]string, 0, len(recommendations))
	for _, r := range recommendations {
		types = append(types, r.Type)
	}
	return types
}

func TestBuildDashboardScenario(t *testing.T) {
	snapshot := BuildDashboard(weekScenario(), july(31, 20))

	assert.Equal(t, "2025-07-31", snapshot.AsOf)
	assert.Equal(t, 7, snapshot.TotalEntries)
	assert.Equal(t, 7.6, snapshot.Averages.MoodScore)
	assert.Equal(t, 7, snapshot.CurrentStreak)
	assert.Equal(t, 7, snapshot.LongestStreak)
	assert.Equal(t, WeeklyTrend{
		RecentAverage: 7.57,
		RecentCount:   7,
		Trend:         TrendStable,
	}, snapshot.WeeklyTrend)
	require.NotNil(t, snapshot.Correlations)
	assert.Equal(t, "Exercise", snapshot.Correlations.Activities.Positive[0].Value)
	assert.Equal(t, []string{RecommendContinue}, recommendationTypes(snapshot.Recommendations))
	assert.Equal(t, "Keep up Exercise: your mood averages 8.0 on days you do it.", snapshot.Recommendations[0].Message)
}

func TestBuildDashboardIsIdempotent(t *testing.T) {
	first, err := json.Marshal(BuildDashboard(weekScenario(), july(31, 20)))
	require.NoError(t, err)
	second, err := json.Marshal(BuildDashboard(weekScenario(), july(31, 20)))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestBuildDashboardRecommendations(t *testing.T) {
	moods := func(sleep float64, previous, recent int) []schema.MoodObservation {
		return []schema.MoodObservation{
			entry("p1", july(17, 9), previous, sleep),
			entry("p2", july(18, 9), previous, sleep),
			entry("p3", july(19, 9), previous, sleep),
			entry("r1", july(28, 9), recent, sleep),
			entry("r2", july(29, 9), recent, sleep),
			entry("r3", july(30, 9), recent, sleep),
		}
	}
	withActivity := func(observations []schema.MoodObservation, label string, ids ...int) []schema.MoodObservation {
		for _, i := range ids {
			observations[i].Activities = append(observations[i].Activities, label)
		}
		return observations
	}
	tests := []struct {
		name         string
		observations []schema.MoodObservation
		wantTypes    []string
		wantTrend    Trend
		wantChange   float64
	}{
		{
			name:         "declining week with short nights",
			observations: moods(5, 8, 3),
			wantTypes:    []string{RecommendSleep, RecommendConcern},
			wantTrend:    TrendDeclining,
			wantChange:   -62.5,
		},
		{
			name:         "improving week",
			observations: moods(8, 3, 8),
			wantTypes:    []string{RecommendReinforcement},
			wantTrend:    TrendImproving,
			wantChange:   166.7,
		},
		{
			name:         "low mood activity",
			observations: withActivity(moods(8, 5, 5), "commute", 0, 1, 2),
			wantTypes:    []string{RecommendContinue, RecommendReduce},
			wantTrend:    TrendStable,
		},
		{
			name:         "nothing fires",
			observations: moods(8, 7, 7),
			wantTypes:    []string{RecommendKeepTracking},
			wantTrend:    TrendStable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := BuildDashboard(tt.observations, july(30, 20))
			assert.Equal(t, tt.wantTypes, recommendationTypes(snapshot.Recommendations))
			assert.Equal(t, tt.wantTrend, snapshot.WeeklyTrend.Trend)
			assert.Equal(t, tt.wantChange, snapshot.WeeklyTrend.ChangePercent)
		})
	}
}

func TestBuildDashboardWithoutObservations(t *testing.T) {
	snapshot := BuildDashboard(nil, july(30, 20))

	assert.Equal(t, 0, snapshot.TotalEntries)
	assert.Equal(t, 0, snapshot.CurrentStreak)
	assert.Nil(t, snapshot.Correlations)
	assert.Equal(t, TrendStable, snapshot.WeeklyTrend.Trend)
	assert.Equal(t, []string{RecommendKeepTracking}, recommendationTypes(snapshot.Recommendations))
}

func TestBuildDashboardTooFewForCorrelations(t *testing.T) {
	snapshot := BuildDashboard(weekScenario()[:3], july(27, 20))

	assert.Nil(t, snapshot.Correlations)
	assert.NotEmpty(t, snapshot.Recommendations)
}
