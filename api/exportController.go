package api

import (
	"context"
	"net/http"
	"time"

	"github.com/mdblp/mood-analytics/common"
	"github.com/rs/zerolog"
)

var errorExportDisabled = common.DetailedError{Status: http.StatusServiceUnavailable, Code: "export_disabled", Message: "export to storage is not configured"}

type ExportController struct {
	logger   zerolog.Logger
	exporter ExporterUseCase
	location LocationProvider
}

// LocationProvider gives the timezone used to read plain days
type LocationProvider interface {
	Location() *time.Location
}

// NewExportController exporter may be nil, the route then answers export_disabled
func NewExportController(logger zerolog.Logger, exporter ExporterUseCase, location LocationProvider) ExportController {
	return ExportController{
		logger:   logger,
		exporter: exporter,
		location: location,
	}
}

// ExportData
// @Summary Export the mood entries and analytics of a user to a file stored on S3.
// @Description This operation is asynchronous and returns 202 once the parameters are checked.
// @ID mood-analytics-export
// @Produce json
// @Success 202
// @Failure 400 {object} common.DetailedError
// @Failure 403 {object} common.DetailedError
// @Failure 503 {object} common.DetailedError
// @Param userID path string true "The ID of the user"
// @Param startDate query string false "YYYY-MM-DD or RFC3339 lower limit"
// @Param endDate query string false "YYYY-MM-DD or RFC3339 upper limit"
// @Param format query string false "structured or tabular"
// @Param x-tidepool-trace-session header string false "Trace session uuid" format(uuid)
// @Router /export/{userID} [get]
func (c ExportController) ExportData(ctx context.Context, res *common.HttpResponseWriter) error {
	if c.exporter == nil {
		detailed := errorExportDisabled
		return res.WriteError(&detailed)
	}
	var loc *time.Location
	if c.location != nil {
		loc = c.location.Location()
	}
	args, err := parseExportArgs(res, loc)
	if err != nil {
		return writeUseCaseError(res, err)
	}
	// The request context ends with the response, the exporter uses its own
	go c.exporter.Export(args)
	c.logger.Info().Str("traceId", args.TraceID).Str("userId", args.UserID).Msg("export scheduled")
	res.WriteHeader(http.StatusAccepted)
	return nil
}
