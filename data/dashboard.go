package data

import (
	"fmt"
	"time"

	"github.com/mdblp/mood-analytics/aggregates"
	"github.com/mdblp/mood-analytics/schema"
)

// Trend direction of the weekly mood comparison
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

const (
	RecommendSleep           = "sleep_hygiene"
	RecommendContinue        = "continue_activity"
	RecommendReduce          = "reduce_activity"
	RecommendReinforcement   = "positive_reinforcement"
	RecommendConcern         = "gentle_concern"
	RecommendKeepTracking    = "keep_tracking"
	recommendedSleepHours    = 7.0
	lowActivityMood          = 6.0
	weeklyDeviationThreshold = 0.5
)

type (
	// WeeklyTrend last 7 days against the 7 days before them
	WeeklyTrend struct {
		RecentAverage   float64 `json:"recentAverage"`
		PreviousAverage float64 `json:"previousAverage"`
		RecentCount     int     `json:"recentCount"`
		PreviousCount   int     `json:"previousCount"`
		ChangePercent   float64 `json:"changePercent"`
		Trend           Trend   `json:"trend"`
	}
	Recommendation struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	DashboardSnapshot struct {
		AsOf          string              `json:"asOf"`
		TotalEntries  int                 `json:"totalEntries"`
		Averages      aggregates.Averages `json:"averages"`
		CurrentStreak int                 `json:"currentStreak"`
		LongestStreak int                 `json:"longestStreak"`
		WeeklyTrend   WeeklyTrend         `json:"weeklyTrend"`
		// Correlations nil when there are too few observations
		Correlations    *CorrelationReport `json:"correlations"`
		Recommendations []Recommendation   `json:"recommendations"`
	}
)

// BuildDashboard assembles the dashboard of the observations as seen on today.
// Calendar days are taken in today's location. It never fails: an analysis
// without enough data leaves its part of the snapshot empty.
func BuildDashboard(observations []schema.MoodObservation, today time.Time) DashboardSnapshot {
	loc := today.Location()
	stats := aggregates.Summarize(observations)
	snapshot := DashboardSnapshot{
		AsOf:          schema.DayKey(today, loc),
		TotalEntries:  stats.TotalEntries,
		Averages:      stats.Averages,
		CurrentStreak: ComputeStreak(observations, today),
		LongestStreak: LongestStreak(observations, loc),
		WeeklyTrend:   ComputeWeeklyTrend(observations, today),
	}

	// too few observations leaves correlations empty
	if report, err := CorrelateInLocation(observations, loc); err == nil {
		snapshot.Correlations = report
	}

	snapshot.Recommendations = recommend(observations, snapshot)
	return snapshot
}

// ComputeWeeklyTrend compares the mean mood of [today-6, today] with [today-13, today-7].
// A previous week without data reports a stable trend and a zero change.
func ComputeWeeklyTrend(observations []schema.MoodObservation, today time.Time) WeeklyTrend {
	loc := today.Location()
	end := schema.StartOfDay(today, loc).AddDate(0, 0, 1)
	recentStart := end.AddDate(0, 0, -7)
	previousStart := end.AddDate(0, 0, -14)

	var recentSum, previousSum, recentCount, previousCount int
	for _, o := range observations {
		switch {
		case !o.Timestamp.Before(recentStart) && o.Timestamp.Before(end):
			recentSum += o.MoodScore
			recentCount++
		case !o.Timestamp.Before(previousStart) && o.Timestamp.Before(recentStart):
			previousSum += o.MoodScore
			previousCount++
		}
	}

	var recent, previous float64
	if recentCount > 0 {
		recent = float64(recentSum) / float64(recentCount)
	}
	if previousCount > 0 {
		previous = float64(previousSum) / float64(previousCount)
	}
	trend := WeeklyTrend{
		RecentAverage:   aggregates.Round(recent, 2),
		PreviousAverage: aggregates.Round(previous, 2),
		RecentCount:     recentCount,
		PreviousCount:   previousCount,
		Trend:           TrendStable,
	}
	if previous == 0 {
		return trend
	}
	trend.ChangePercent = aggregates.Round1((recent - previous) / previous * 100)
	switch {
	case recent > previous:
		trend.Trend = TrendImproving
	case recent < previous:
		trend.Trend = TrendDeclining
	}
	return trend
}

// recommend evaluates the rules in a fixed order, several may fire
func recommend(observations []schema.MoodObservation, snapshot DashboardSnapshot) []Recommendation {
	recommendations := make([]Recommendation, 0, 5)
	if len(observations) > 0 {
		var moodSum int
		var sleepSum float64
		for _, o := range observations {
			moodSum += o.MoodScore
			sleepSum += o.SleepHours
		}
		overallMood := float64(moodSum) / float64(len(observations))
		overallSleep := sleepSum / float64(len(observations))

		if overallSleep < recommendedSleepHours {
			recommendations = append(recommendations, Recommendation{
				Type:    RecommendSleep,
				Message: fmt.Sprintf("You average %.1f hours of sleep. Aim for 7 to 9 hours with a regular bedtime to support your mood.", overallSleep),
			})
		}

		if snapshot.Correlations != nil {
			activities := snapshot.Correlations.Activities
			if len(activities.Positive) > 0 {
				top := activities.Positive[0]
				recommendations = append(recommendations, Recommendation{
					Type:    RecommendContinue,
					Message: fmt.Sprintf("Keep up %s: your mood averages %.1f on days you do it.", top.Value, top.AverageMood),
				})
			}
			if len(activities.Negative) > 0 && activities.Negative[0].AverageMood < lowActivityMood {
				bottom := activities.Negative[0]
				recommendations = append(recommendations, Recommendation{
					Type:    RecommendReduce,
					Message: fmt.Sprintf("Consider cutting back on %s: your mood averages %.1f on days you do it.", bottom.Value, bottom.AverageMood),
				})
			}
		}

		if snapshot.WeeklyTrend.RecentCount > 0 {
			recentMood := snapshot.WeeklyTrend.RecentAverage
			if recentMood > overallMood+weeklyDeviationThreshold {
				recommendations = append(recommendations, Recommendation{
					Type:    RecommendReinforcement,
					Message: fmt.Sprintf("Your mood this week (%.1f) is above your usual %.1f. Keep doing what works for you!", recentMood, overallMood),
				})
			}
			if recentMood < overallMood-weeklyDeviationThreshold {
				recommendations = append(recommendations, Recommendation{
					Type:    RecommendConcern,
					Message: fmt.Sprintf("Your mood this week (%.1f) is below your usual %.1f. Be gentle with yourself and consider reaching out to someone you trust.", recentMood, overallMood),
				})
			}
		}
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, Recommendation{
			Type:    RecommendKeepTracking,
			Message: "Keep tracking your mood every day to unlock more personalized insights.",
		})
	}
	return recommendations
}
