package data

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mdblp/mood-analytics/aggregates"
	"github.com/mdblp/mood-analytics/schema"
)

const (
	// MinObservationsForCorrelation below this sample size no ranking is reported
	MinObservationsForCorrelation = 5
	// MinActivityOccurrences an activity label needs this many samples to be ranked
	MinActivityOccurrences = 3
	PositiveActivities     = 5
	NegativeActivities     = 3

	GoodSleepHours = 7.0
	PoorSleepHours = 6.0

	goodSleepLabel = "good sleep"
	poorSleepLabel = "poor sleep"
)

// ErrInsufficientData too few observations to compute correlations
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError carries the sample size that was rejected
type InsufficientDataError struct {
	Count   int
	Minimum int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %d observations, at least %d required", ErrInsufficientData, e.Count, e.Minimum)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

type (
	// CorrelationSlice mood impact of one value of a dimension
	CorrelationSlice struct {
		Value         string   `json:"value"`
		Count         int      `json:"count"`
		AverageMood   float64  `json:"averageMood"`
		AverageStress *float64 `json:"averageStress,omitempty"`
	}
	SleepImpact struct {
		// Groups "good sleep" then "poor sleep", an empty group is omitted
		Groups  []CorrelationSlice `json:"groups"`
		Delta   *float64           `json:"delta"`
		Insight string             `json:"insight,omitempty"`
	}
	ActivityImpact struct {
		Positive []CorrelationSlice `json:"positive"`
		// Negative worst activity first
		Negative []CorrelationSlice `json:"negative"`
		Insight  string             `json:"insight,omitempty"`
	}
	SocialImpact struct {
		Contexts []CorrelationSlice `json:"contexts"`
		Insight  string             `json:"insight,omitempty"`
	}
	WeekdayPattern struct {
		// Days Monday first, only the weekdays having samples
		Days    []CorrelationSlice `json:"days"`
		Insight string             `json:"insight,omitempty"`
	}
	CorrelationReport struct {
		SampleSize int            `json:"sampleSize"`
		Sleep      SleepImpact    `json:"sleepImpact"`
		Activities ActivityImpact `json:"activityImpact"`
		Social     SocialImpact   `json:"socialImpact"`
		Weekdays   WeekdayPattern `json:"dayOfWeekPattern"`
		Insights   []string       `json:"insights"`
	}
)

// group accumulates the samples of one dimension value
type group struct {
	value     string
	count     int
	moodSum   int
	stressSum int
}

func (g *group) add(o schema.MoodObservation) {
	g.count++
	g.moodSum += o.MoodScore
	g.stressSum += o.Stress
}

func (g *group) mean() float64 {
	return float64(g.moodSum) / float64(g.count)
}

func (g *group) slice() CorrelationSlice {
	return CorrelationSlice{
		Value:       g.value,
		Count:       g.count,
		AverageMood: aggregates.Round1(g.mean()),
	}
}

// rankGroups sorts by mean mood descending, unrounded, ties by sample count then value
func rankGroups(groups []*group) {
	sort.SliceStable(groups, func(i, j int) bool {
		mi, mj := groups[i].mean(), groups[j].mean()
		if mi != mj {
			return mi > mj
		}
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].value < groups[j].value
	})
}

func toSlices(groups []*group) []CorrelationSlice {
	out := make([]CorrelationSlice, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.slice())
	}
	return out
}

// Correlate computes the four mood impact analyses with weekdays taken in UTC
func Correlate(observations []schema.MoodObservation) (*CorrelationReport, error) {
	return CorrelateInLocation(observations, time.UTC)
}

// CorrelateInLocation same as Correlate, weekdays taken in loc.
// The analyses are independent and computed concurrently.
func CorrelateInLocation(observations []schema.MoodObservation, loc *time.Location) (*CorrelationReport, error) {
	if len(observations) < MinObservationsForCorrelation {
		return nil, &InsufficientDataError{Count: len(observations), Minimum: MinObservationsForCorrelation}
	}
	if loc == nil {
		loc = time.UTC
	}

	var wg sync.WaitGroup
	channel := make(chan interface{})
	wg.Add(4)
	go func() { defer wg.Done(); channel <- SleepImpactOf(observations) }()
	go func() { defer wg.Done(); channel <- ActivityImpactOf(observations) }()
	go func() { defer wg.Done(); channel <- SocialImpactOf(observations) }()
	go func() { defer wg.Done(); channel <- WeekdayPatternOf(observations, loc) }()
	go func() {
		wg.Wait()
		close(channel)
	}()

	report := &CorrelationReport{SampleSize: len(observations)}
	for result := range channel {
		switch r := result.(type) {
		case SleepImpact:
			report.Sleep = r
		case ActivityImpact:
			report.Activities = r
		case SocialImpact:
			report.Social = r
		case WeekdayPattern:
			report.Weekdays = r
		}
	}

	report.Insights = make([]string, 0, 4)
	for _, insight := range []string{report.Sleep.Insight, report.Activities.Insight, report.Social.Insight, report.Weekdays.Insight} {
		if insight != "" {
			report.Insights = append(report.Insights, insight)
		}
	}
	return report, nil
}

// SleepImpactOf compares mood after good (>= 7h) and poor (< 6h) nights.
// Nights in [6h, 7h) belong to neither group.
func SleepImpactOf(observations []schema.MoodObservation) SleepImpact {
	good := &group{value: goodSleepLabel}
	poor := &group{value: poorSleepLabel}
	for _, o := range observations {
		switch {
		case o.SleepHours >= GoodSleepHours:
			good.add(o)
		case o.SleepHours < PoorSleepHours:
			poor.add(o)
		}
	}

	impact := SleepImpact{Groups: make([]CorrelationSlice, 0, 2)}
	for _, g := range []*group{good, poor} {
		if g.count > 0 {
			impact.Groups = append(impact.Groups, g.slice())
		}
	}
	if good.count == 0 || poor.count == 0 {
		return impact
	}
	delta := aggregates.Round1(good.mean() - poor.mean())
	impact.Delta = &delta
	impact.Insight = sleepInsight(delta)
	return impact
}

// ActivityImpactOf ranks the activity labels seen at least MinActivityOccurrences times
func ActivityImpactOf(observations []schema.MoodObservation) ActivityImpact {
	byLabel := make(map[string]*group)
	for _, o := range observations {
		for _, label := range o.ActivitySet() {
			g, found := byLabel[label]
			if !found {
				g = &group{value: label}
				byLabel[label] = g
			}
			g.add(o)
		}
	}

	ranked := make([]*group, 0, len(byLabel))
	for _, g := range byLabel {
		if g.count >= MinActivityOccurrences {
			ranked = append(ranked, g)
		}
	}
	rankGroups(ranked)

	impact := ActivityImpact{
		Positive: toSlices(ranked[:min(PositiveActivities, len(ranked))]),
		Negative: make([]CorrelationSlice, 0, NegativeActivities),
	}
	for i := len(ranked) - 1; i >= 0 && i >= len(ranked)-NegativeActivities; i-- {
		impact.Negative = append(impact.Negative, ranked[i].slice())
	}
	if len(impact.Positive) > 0 {
		impact.Insight = fmt.Sprintf("%s appears to have the most positive impact on your mood", impact.Positive[0].Value)
	}
	return impact
}

// SocialImpactOf ranks the social contexts, observations without one are ignored
func SocialImpactOf(observations []schema.MoodObservation) SocialImpact {
	byContext := make(map[schema.SocialContext]*group)
	for _, o := range observations {
		if o.SocialContext == "" {
			continue
		}
		g, found := byContext[o.SocialContext]
		if !found {
			g = &group{value: string(o.SocialContext)}
			byContext[o.SocialContext] = g
		}
		g.add(o)
	}

	ranked := make([]*group, 0, len(byContext))
	for _, g := range byContext {
		ranked = append(ranked, g)
	}
	rankGroups(ranked)

	impact := SocialImpact{Contexts: toSlices(ranked)}
	if len(ranked) > 0 {
		impact.Insight = fmt.Sprintf("You tend to feel best %s", socialPhrase(schema.SocialContext(ranked[0].value)))
	}
	return impact
}

// WeekdayPatternOf mean mood and stress per ISO weekday, Monday first
func WeekdayPatternOf(observations []schema.MoodObservation, loc *time.Location) WeekdayPattern {
	if loc == nil {
		loc = time.UTC
	}
	var weekdays [7]*group
	for _, o := range observations {
		wd := o.Timestamp.In(loc).Weekday()
		// Monday is 0
		idx := (int(wd) + 6) % 7
		if weekdays[idx] == nil {
			weekdays[idx] = &group{value: wd.String()}
		}
		weekdays[idx].add(o)
	}

	pattern := WeekdayPattern{Days: make([]CorrelationSlice, 0, 7)}
	var best *group
	for _, g := range weekdays {
		if g == nil {
			continue
		}
		s := g.slice()
		stress := aggregates.Round1(float64(g.stressSum) / float64(g.count))
		s.AverageStress = &stress
		pattern.Days = append(pattern.Days, s)
		if best == nil || g.mean() > best.mean() {
			best = g
		}
	}
	if best != nil {
		pattern.Insight = fmt.Sprintf("%s tends to be your best day", best.value)
	}
	return pattern
}

func sleepInsight(delta float64) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("Your mood is %.1f points higher after 7+ hours of sleep", delta)
	case delta < 0:
		return fmt.Sprintf("Your mood is %.1f points lower after 7+ hours of sleep", -delta)
	default:
		return "Sleep duration shows no clear effect on your mood"
	}
}

func socialPhrase(c schema.SocialContext) string {
	switch c {
	case schema.SocialAlone:
		return "when alone"
	case schema.SocialWork:
		return "at work"
	case schema.SocialPublic:
		return "in public"
	default:
		return c.Label()
	}
}
