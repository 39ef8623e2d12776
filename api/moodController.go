package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mdblp/mood-analytics/common"
	"github.com/mdblp/mood-analytics/data"
	"github.com/mdblp/mood-analytics/schema"
	"github.com/mdblp/mood-analytics/usecase"
)

// writeUseCaseError maps the use case error kinds to their http form
func writeUseCaseError(res *common.HttpResponseWriter, err error) error {
	var detailed common.DetailedError
	var insufficient *data.InsufficientDataError
	switch {
	case errors.As(err, &insufficient):
		detailed = errorInsufficientData
		detailed.Message = fmt.Sprintf("%d mood entries found, at least %d are needed", insufficient.Count, insufficient.Minimum)
	case errors.Is(err, usecase.ErrInsufficientData):
		detailed = errorInsufficientData
	case errors.Is(err, usecase.ErrInvalidRange):
		detailed = errorInvalidParams
		detailed.Message = err.Error()
	case errors.Is(err, usecase.ErrFetchFailure):
		detailed = errorRunningQuery
	default:
		detailed = errorInternal
	}
	detailed = detailed.SetInternalMessage(err)
	return res.WriteError(&detailed)
}

func parseAsOf(query url.Values, loc *time.Location) (time.Time, error) {
	value := query.Get("asOf")
	if value == "" {
		return time.Time{}, nil
	}
	return schema.ParseDay(value, loc)
}

// parseDays a missing value keeps the configured window
func parseDays(query url.Values) (int, error) {
	value := query.Get("days")
	if value == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(value)
	if err != nil || days <= 0 {
		return 0, fmt.Errorf("%w: days must be a positive integer, got %q", usecase.ErrInvalidRange, value)
	}
	return days, nil
}

func parseExportArgs(res *common.HttpResponseWriter, loc *time.Location) (usecase.ExportArgs, error) {
	query := res.URL.Query()
	args := usecase.ExportArgs{
		UserID:  res.VARS["userID"],
		TraceID: res.TraceID,
		Format:  query.Get("format"),
	}
	var err error
	if value := query.Get("startDate"); value != "" {
		if args.From, err = schema.ParseDay(value, loc); err != nil {
			return args, err
		}
	}
	if value := query.Get("endDate"); value != "" {
		if args.To, err = schema.ParseDayEnd(value, loc); err != nil {
			return args, err
		}
	}
	if _, err = usecase.ParseExportFormat(args.Format); err != nil {
		return args, err
	}
	return args, nil
}

// @Summary Get the mood dashboard of a user
// @Description Statistics, streaks, weekly trend, correlations and recommendations of the window ending on asOf
// @ID mood-analytics-api-v1-getdashboard
// @Produce json
// @Success 200 {object} data.DashboardSnapshot
// @Failure 400 {object} common.DetailedError
// @Failure 403 {object} common.DetailedError
// @Failure 500 {object} common.DetailedError
// @Param userID path string true "The ID of the user"
// @Param asOf query string false "Reference day YYYY-MM-DD, today when missing"
// @Param days query integer false "Number of days of the window"
// @Param x-tidepool-trace-session header string false "Trace session uuid" format(uuid)
// @Router /v1/dashboard/{userID} [get]
func (a *API) getDashboard(ctx context.Context, res *common.HttpResponseWriter) error {
	query := res.URL.Query()
	asOf, err := parseAsOf(query, a.analytics.Location())
	if err != nil {
		return writeUseCaseError(res, err)
	}
	days, err := parseDays(query)
	if err != nil {
		return writeUseCaseError(res, err)
	}
	snapshot, err := a.analytics.GetDashboard(ctx, usecase.DashboardArgs{
		UserID:  res.VARS["userID"],
		TraceID: res.TraceID,
		AsOf:    asOf,
		Days:    days,
	})
	if err != nil {
		return writeUseCaseError(res, err)
	}
	return res.WriteJSON(snapshot)
}

// @Summary Get the mood trends of a user
// @Description Time buckets and statistics of the period ending on asOf
// @ID mood-analytics-api-v1-gettrends
// @Produce json
// @Success 200 {object} usecase.TrendsResult
// @Failure 400 {object} common.DetailedError
// @Failure 403 {object} common.DetailedError
// @Failure 500 {object} common.DetailedError
// @Param userID path string true "The ID of the user"
// @Param period query string false "week, month, quarter or year"
// @Param granularity query string false "day, week or month"
// @Param asOf query string false "Reference day YYYY-MM-DD, today when missing"
// @Router /v1/trends/{userID} [get]
func (a *API) getTrends(ctx context.Context, res *common.HttpResponseWriter) error {
	query := res.URL.Query()
	asOf, err := parseAsOf(query, a.analytics.Location())
	if err != nil {
		return writeUseCaseError(res, err)
	}
	result, err := a.analytics.GetTrends(ctx, usecase.TrendsArgs{
		UserID:      res.VARS["userID"],
		TraceID:     res.TraceID,
		AsOf:        asOf,
		Period:      query.Get("period"),
		Granularity: query.Get("granularity"),
	})
	if err != nil {
		return writeUseCaseError(res, err)
	}
	return res.WriteJSON(result)
}

// @Summary Get the mood correlations of a user
// @ID mood-analytics-api-v1-getcorrelations
// @Produce json
// @Success 200 {object} data.CorrelationReport
// @Failure 400 {object} common.DetailedError
// @Failure 403 {object} common.DetailedError
// @Failure 422 {object} common.DetailedError
// @Failure 500 {object} common.DetailedError
// @Param userID path string true "The ID of the user"
// @Param days query integer false "Number of days of the window"
// @Param asOf query string false "Reference day YYYY-MM-DD, today when missing"
// @Router /v1/correlations/{userID} [get]
func (a *API) getCorrelations(ctx context.Context, res *common.HttpResponseWriter) error {
	query := res.URL.Query()
	asOf, err := parseAsOf(query, a.analytics.Location())
	if err != nil {
		return writeUseCaseError(res, err)
	}
	days, err := parseDays(query)
	if err != nil {
		return writeUseCaseError(res, err)
	}
	report, err := a.analytics.GetCorrelations(ctx, usecase.CorrelationsArgs{
		UserID:  res.VARS["userID"],
		TraceID: res.TraceID,
		AsOf:    asOf,
		Days:    days,
	})
	if err != nil {
		return writeUseCaseError(res, err)
	}
	return res.WriteJSON(report)
}

// @Summary Download the mood entries of a user with their analytics
// @ID mood-analytics-api-v1-getexport
// @Produce json
// @Produce text/csv
// @Success 200
// @Failure 400 {object} common.DetailedError
// @Failure 403 {object} common.DetailedError
// @Failure 500 {object} common.DetailedError
// @Param userID path string true "The ID of the user"
// @Param startDate query string false "YYYY-MM-DD or RFC3339 lower limit"
// @Param endDate query string false "YYYY-MM-DD or RFC3339 upper limit"
// @Param format query string false "structured or tabular"
// @Router /v1/export/{userID} [get]
func (a *API) getExport(ctx context.Context, res *common.HttpResponseWriter) error {
	args, err := parseExportArgs(res, a.analytics.Location())
	if err != nil {
		return writeUseCaseError(res, err)
	}
	buffer, format, err := a.analytics.Export(ctx, args)
	if err != nil {
		return writeUseCaseError(res, err)
	}
	res.ContentType = format.ContentType()
	res.WriteHeader(http.StatusOK)
	return res.Write(buffer.Bytes())
}
