package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mdblp/mood-analytics/aggregates"
	"github.com/mdblp/mood-analytics/common"
	"github.com/mdblp/mood-analytics/data"
	"github.com/mdblp/mood-analytics/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Error kinds returned by the use case, match them with errors.Is
var (
	// ErrFetchFailure the record store failed, was cancelled or timed out
	ErrFetchFailure = errors.New("fetch failure")
	// ErrInvalidRange rejected parameters, nothing was fetched
	ErrInvalidRange = schema.ErrInvalidRange
	// ErrInsufficientData too few observations to correlate
	ErrInsufficientData = data.ErrInsufficientData
)

// Period of a trend request, always ending on the reference day
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

func ParsePeriod(value string) (Period, error) {
	switch p := Period(value); p {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return p, nil
	case "":
		return PeriodWeek, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", ErrInvalidRange, value)
	}
}

// Range the calendar days of the period ending with asOf's day, bounds included:
// a week is the last 7 days, a month ends on asOf and starts the day after the
// same date one month earlier.
func (p Period) Range(asOf time.Time, loc *time.Location) schema.DateRange {
	next := schema.StartOfDay(asOf, loc).AddDate(0, 0, 1)
	var start time.Time
	switch p {
	case PeriodMonth:
		start = next.AddDate(0, -1, 0)
	case PeriodQuarter:
		start = next.AddDate(0, -3, 0)
	case PeriodYear:
		start = next.AddDate(-1, 0, 0)
	default:
		start = next.AddDate(0, 0, -7)
	}
	return schema.DateRange{Start: start, End: schema.EndOfDay(asOf, loc)}
}

type (
	DashboardArgs struct {
		UserID  string
		TraceID string
		// AsOf reference day, today when zero
		AsOf time.Time
		// Days fetch window ending on AsOf, the configured default when zero
		Days int
	}
	TrendsArgs struct {
		UserID      string
		TraceID     string
		AsOf        time.Time
		Period      string
		Granularity string
	}
	CorrelationsArgs struct {
		UserID  string
		TraceID string
		AsOf    time.Time
		Days    int
	}
	// TrendsResult returned by GetTrends
	TrendsResult struct {
		Period      Period                 `json:"period"`
		Granularity aggregates.Granularity `json:"granularity"`
		TrendData   []aggregates.Bucket    `json:"trendData"`
		Statistics  aggregates.Statistics  `json:"statistics"`
		DateRange   schema.DateRange       `json:"dateRange"`
	}
)

var dataFromStoreTimer = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:      "data_from_store_time",
	Help:      "A histogram for the mood observations fetch execution time (ms)",
	Buckets:   prometheus.LinearBuckets(20, 20, 100),
	Subsystem: "analytics",
	Namespace: "mood",
})

var computeTimer = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:      "compute_time",
	Help:      "A histogram for the analytics computation time (ms) per operation",
	Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	Subsystem: "analytics",
	Namespace: "mood",
}, []string{"operation"})

var observationsFetched = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:      "observations_fetched",
	Help:      "Number of mood observations returned by a fetch",
	Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	Subsystem: "analytics",
	Namespace: "mood",
})

// MoodAnalytics fetches one user's observations once per call and runs the analytics on them
type MoodAnalytics struct {
	logger          zerolog.Logger
	repository      MoodRepository
	location        *time.Location
	fetchTimeout    time.Duration
	dashboardDays   int
	correlationDays int
	now             func() time.Time
}

func NewMoodAnalytics(logger zerolog.Logger, repository MoodRepository, config *common.AnalyticsConfig) *MoodAnalytics {
	return &MoodAnalytics{
		logger:          logger,
		repository:      repository,
		location:        config.Location(),
		fetchTimeout:    config.FetchTimeout,
		dashboardDays:   config.DashboardDays,
		correlationDays: config.CorrelationDays,
		now:             time.Now,
	}
}

// Location reference timezone of the calendar days
func (m *MoodAnalytics) Location() *time.Location {
	return m.location
}

// reference returns asOf, or now, in the reference timezone
func (m *MoodAnalytics) reference(asOf time.Time) time.Time {
	if asOf.IsZero() {
		asOf = m.now()
	}
	return asOf.In(m.location)
}

func (m *MoodAnalytics) window(asOf time.Time, days int, defaultDays int) (schema.DateRange, error) {
	if days == 0 {
		days = defaultDays
	}
	return schema.LastDays(asOf, days, m.location)
}

// fetch runs the only blocking call of an operation, under the fetch timeout.
// Any failure, including an expired deadline, is a FetchFailure and nothing gets computed.
func (m *MoodAnalytics) fetch(ctx context.Context, traceID string, userID string, dates schema.DateRange) ([]schema.MoodObservation, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is missing", ErrInvalidRange)
	}
	if err := dates.Validate(); err != nil {
		return nil, err
	}

	fetchCtx := ctx
	if m.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, m.fetchTimeout)
		defer cancel()
	}

	common.TimeIt(ctx, "fetch")
	start := time.Now()
	observations, err := m.repository.FetchObservations(fetchCtx, traceID, userID, dates)
	dataFromStoreTimer.Observe(float64(time.Since(start).Milliseconds()))
	common.TimeEnd(ctx, "fetch")
	if err == nil {
		err = fetchCtx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailure, addContextToMessage("FetchObservations", userID, traceID), err)
	}
	observationsFetched.Observe(float64(len(observations)))

	// The store may return anything, only keep what was asked for
	kept := make([]schema.MoodObservation, 0, len(observations))
	for _, o := range observations {
		if o.UserID == userID && dates.Contains(o.Timestamp) {
			kept = append(kept, o.Normalize())
		}
	}
	if dropped := len(observations) - len(kept); dropped > 0 {
		m.logger.Warn().Str("traceId", traceID).Str("userId", userID).Int("dropped", dropped).Msg("observations outside of the requested range")
	}
	schema.SortByTimestamp(kept)
	return kept, nil
}

func (m *MoodAnalytics) compute(ctx context.Context, operation string, fn func()) {
	common.TimeIt(ctx, operation)
	start := time.Now()
	fn()
	computeTimer.WithLabelValues(operation).Observe(float64(time.Since(start).Microseconds()) / 1000)
	common.TimeEnd(ctx, operation)
}

// GetDashboard the dashboard snapshot of the window ending on args.AsOf
func (m *MoodAnalytics) GetDashboard(ctx context.Context, args DashboardArgs) (*data.DashboardSnapshot, error) {
	asOf := m.reference(args.AsOf)
	dates, err := m.window(asOf, args.Days, m.dashboardDays)
	if err != nil {
		return nil, err
	}
	observations, err := m.fetch(ctx, args.TraceID, args.UserID, dates)
	if err != nil {
		return nil, err
	}

	var snapshot data.DashboardSnapshot
	m.compute(ctx, "dashboard", func() {
		snapshot = data.BuildDashboard(observations, asOf)
	})
	return &snapshot, nil
}

// GetTrends time buckets and statistics of the period ending on args.AsOf
func (m *MoodAnalytics) GetTrends(ctx context.Context, args TrendsArgs) (*TrendsResult, error) {
	period, err := ParsePeriod(args.Period)
	if err != nil {
		return nil, err
	}
	granularity, err := aggregates.ParseGranularity(args.Granularity)
	if err != nil {
		return nil, err
	}
	dates := period.Range(m.reference(args.AsOf), m.location)
	observations, err := m.fetch(ctx, args.TraceID, args.UserID, dates)
	if err != nil {
		return nil, err
	}

	result := &TrendsResult{
		Period:      period,
		Granularity: granularity,
		DateRange:   dates,
	}
	m.compute(ctx, "trends", func() {
		result.TrendData = aggregates.AggregateInLocation(observations, granularity, m.location)
		result.Statistics = aggregates.Summarize(observations)
	})
	return result, nil
}

// GetCorrelations the correlation report of the window ending on args.AsOf,
// an *data.InsufficientDataError below the minimum sample size
func (m *MoodAnalytics) GetCorrelations(ctx context.Context, args CorrelationsArgs) (*data.CorrelationReport, error) {
	asOf := m.reference(args.AsOf)
	dates, err := m.window(asOf, args.Days, m.correlationDays)
	if err != nil {
		return nil, err
	}
	observations, err := m.fetch(ctx, args.TraceID, args.UserID, dates)
	if err != nil {
		return nil, err
	}

	var report *data.CorrelationReport
	m.compute(ctx, "correlations", func() {
		report, err = data.CorrelateInLocation(observations, m.location)
	})
	return report, err
}

// addContextToMessage keeps the user and trace ids in the logged error
func addContextToMessage(methodName string, userID string, traceID string) string {
	return fmt.Sprintf("%s failed: user=[%s], traceID=[%s]", methodName, userID, traceID)
}
