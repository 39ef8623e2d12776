package api

import (
	"bytes"
	"context"
	"time"

	"github.com/mdblp/mood-analytics/data"
	"github.com/mdblp/mood-analytics/usecase"
)

type MoodAnalyticsUseCase interface {
	Location() *time.Location
	GetDashboard(ctx context.Context, args usecase.DashboardArgs) (*data.DashboardSnapshot, error)
	GetTrends(ctx context.Context, args usecase.TrendsArgs) (*usecase.TrendsResult, error)
	GetCorrelations(ctx context.Context, args usecase.CorrelationsArgs) (*data.CorrelationReport, error)
	Export(ctx context.Context, args usecase.ExportArgs) (*bytes.Buffer, usecase.ExportFormat, error)
}

type ExporterUseCase interface {
	Export(args usecase.ExportArgs)
}
