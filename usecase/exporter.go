package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mdblp/mood-analytics/aggregates"
	"github.com/mdblp/mood-analytics/common"
	"github.com/mdblp/mood-analytics/data"
	"github.com/mdblp/mood-analytics/schema"
	"github.com/rs/zerolog"
)

type ExportFormat string

const (
	// FormatStructured indented JSON document
	FormatStructured ExportFormat = "structured"
	// FormatTabular csv, one row per observation
	FormatTabular ExportFormat = "tabular"
)

func ParseExportFormat(value string) (ExportFormat, error) {
	switch f := ExportFormat(value); f {
	case FormatStructured, FormatTabular:
		return f, nil
	case "":
		return FormatStructured, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", ErrInvalidRange, value)
	}
}

// ContentType http content type of the format
func (f ExportFormat) ContentType() string {
	if f == FormatTabular {
		return "text/csv"
	}
	return "application/json"
}

// Extension file extension of the format
func (f ExportFormat) Extension() string {
	if f == FormatTabular {
		return "csv"
	}
	return "json"
}

type (
	ExportArgs struct {
		UserID  string
		TraceID string
		// From start of the range, the dashboard window before To when zero
		From time.Time
		// To end of the range, the end of today when zero
		To     time.Time
		Format string
	}
	ExportStreaks struct {
		Current int `json:"current"`
		Longest int `json:"longest"`
	}
	// ExportDocument the structured export, the tabular one only holds its observations
	ExportDocument struct {
		UserID       string                  `json:"userId"`
		DateRange    schema.DateRange        `json:"dateRange"`
		Observations []schema.MoodObservation `json:"observations"`
		Statistics   aggregates.Statistics   `json:"statistics"`
		DailyBuckets []aggregates.Bucket     `json:"dailyBuckets"`
		Streaks      ExportStreaks           `json:"streaks"`
		// Correlations null when there are too few observations
		Correlations *data.CorrelationReport `json:"correlations"`
		Dashboard    data.DashboardSnapshot  `json:"dashboard"`
	}
)

func (m *MoodAnalytics) exportRange(from time.Time, to time.Time) (schema.DateRange, error) {
	if to.IsZero() {
		to = schema.EndOfDay(m.reference(time.Time{}), m.location)
	}
	if from.IsZero() {
		from = schema.StartOfDay(to, m.location).AddDate(0, 0, -(m.dashboardDays - 1))
	}
	return schema.NewDateRange(from, to)
}

// BuildExportDocument fetches the range once and assembles every derived result
func (m *MoodAnalytics) BuildExportDocument(ctx context.Context, args ExportArgs) (*ExportDocument, error) {
	dates, err := m.exportRange(args.From, args.To)
	if err != nil {
		return nil, err
	}
	observations, err := m.fetch(ctx, args.TraceID, args.UserID, dates)
	if err != nil {
		return nil, err
	}

	document := &ExportDocument{
		UserID:       args.UserID,
		DateRange:    dates,
		Observations: observations,
	}
	m.compute(ctx, "export", func() {
		asOf := dates.End.In(m.location)
		document.Statistics = aggregates.Summarize(observations)
		document.DailyBuckets = aggregates.AggregateInLocation(observations, aggregates.GranularityDay, m.location)
		document.Dashboard = data.BuildDashboard(observations, asOf)
		document.Streaks = ExportStreaks{
			Current: document.Dashboard.CurrentStreak,
			Longest: document.Dashboard.LongestStreak,
		}
		document.Correlations = document.Dashboard.Correlations
	})
	return document, nil
}

// Export serializes the observations of the range and their analytics in the requested format
func (m *MoodAnalytics) Export(ctx context.Context, args ExportArgs) (*bytes.Buffer, ExportFormat, error) {
	format, err := ParseExportFormat(args.Format)
	if err != nil {
		return nil, "", err
	}
	document, err := m.BuildExportDocument(ctx, args)
	if err != nil {
		return nil, "", err
	}
	buffer, err := EncodeExport(document, format)
	return buffer, format, err
}

// EncodeExport renders a document. The tabular form is computed from the
// structured observations so it never holds anything the structured form does not.
func EncodeExport(document *ExportDocument, format ExportFormat) (*bytes.Buffer, error) {
	if format == FormatTabular {
		observations, err := json.Marshal(document.Observations)
		if err != nil {
			return nil, err
		}
		return jsonToCsv(observations)
	}
	structured, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, err
	}
	buffer := bytes.NewBuffer(structured)
	buffer.WriteByte('\n')
	return buffer, nil
}

// Exporter uploads exports to the object storage, out of the request
type Exporter struct {
	logger    zerolog.Logger
	uploader  Uploader
	analytics *MoodAnalytics
	now       func() time.Time
}

func NewExporter(logger zerolog.Logger, analytics *MoodAnalytics, uploader Uploader) *Exporter {
	return &Exporter{
		logger:    logger,
		uploader:  uploader,
		analytics: analytics,
		now:       time.Now,
	}
}

// ExportFilename <userID>_<UTC time>.<extension>
func ExportFilename(userID string, at time.Time, format ExportFormat) string {
	return strings.Join([]string{userID, at.UTC().Format("20060102T150405Z")}, "_") + "." + format.Extension()
}

// Export builds the export and uploads it. Meant to run in its own go routine,
// failures are logged and never retried.
func (e *Exporter) Export(args ExportArgs) {
	logger := e.logger.With().Str("traceId", args.TraceID).Str("userId", args.UserID).Logger()
	logger.Info().Msg("launching export process")
	backgroundCtx := common.TimeItContext(context.Background())
	startExportTime := e.now()
	buffer, format, err := e.analytics.Export(backgroundCtx, args)
	if err != nil {
		logger.Error().Err(err).Msg("export failed")
		return
	}
	filename := ExportFilename(args.UserID, startExportTime, format)
	if err := e.uploader.Upload(backgroundCtx, filename, buffer); err != nil {
		logger.Error().Err(err).Str("filename", filename).Msg("S3 upload failed")
		return
	}
	logger.Info().Str("filename", filename).Str("timers", common.TimeResults(backgroundCtx)).Msg("upload to S3 done with success")
}
