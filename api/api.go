package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mdblp/go-common/clients/auth"
	"github.com/mdblp/mood-analytics/common"
	"github.com/mdblp/mood-analytics/usecase"
	"github.com/rs/zerolog"
	"github.com/tidepool-org/go-common/clients/opa"
	"github.com/tidepool-org/go-common/clients/status"
)

type (
	// API struct for mood-analytics
	API struct {
		exportController ExportController
		analytics        MoodAnalyticsUseCase
		databaseAdapter  usecase.DatabaseAdapter
		authClient       auth.ClientInterface
		perms            opa.Client
		logger           zerolog.Logger
	}
)

var (
	errorStatusCheck      = common.DetailedError{Status: http.StatusInternalServerError, Code: "data_status_check", Message: "checking of the status endpoint showed an error"}
	errorNoViewPermission = common.DetailedError{Status: http.StatusForbidden, Code: "data_cant_view", Message: "user is not authorized to view data"}
	errorRunningQuery     = common.DetailedError{Status: http.StatusInternalServerError, Code: "data_store_error", Message: "internal server error"}
	errorLoadingEvents    = common.DetailedError{Status: http.StatusInternalServerError, Code: "json_marshal_error", Message: "internal server error"}
	errorInvalidParams    = common.DetailedError{Status: http.StatusBadRequest, Code: "invalid_parameters", Message: "one or more parameters are invalid"}
	errorInsufficientData = common.DetailedError{Status: http.StatusUnprocessableEntity, Code: "insufficient_data", Message: "not enough mood entries"}
	errorInternal         = common.DetailedError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
)

func InitAPI(exportController ExportController, analytics MoodAnalyticsUseCase, dbAdapter usecase.DatabaseAdapter, auth auth.ClientInterface, permsClient opa.Client, logger zerolog.Logger) *API {
	return &API{
		exportController: exportController,
		analytics:        analytics,
		databaseAdapter:  dbAdapter,
		authClient:       auth,
		perms:            permsClient,
		logger:           logger,
	}
}

// SetHandlers set the API routes
func (a *API) SetHandlers(prefix string, rtr *mux.Router) {
	a.setHandlers(prefix+"/v1", rtr)

	rtr.HandleFunc(prefix+"/export/{userID}", a.middleware(a.exportController.ExportData, true, "userID")).Methods(http.MethodGet)
	rtr.HandleFunc(prefix+"/status", a.getStatus).Methods(http.MethodGet)
}

func (a *API) setHandlers(prefix string, rtr *mux.Router) {
	rtr.HandleFunc(prefix+"/dashboard/{userID}", a.middleware(a.getDashboard, true, "userID")).Methods(http.MethodGet)
	rtr.HandleFunc(prefix+"/trends/{userID}", a.middleware(a.getTrends, true, "userID")).Methods(http.MethodGet)
	rtr.HandleFunc(prefix+"/correlations/{userID}", a.middleware(a.getCorrelations, true, "userID")).Methods(http.MethodGet)
	rtr.HandleFunc(prefix+"/export/{userID}", a.middleware(a.getExport, true, "userID")).Methods(http.MethodGet)
	rtr.HandleFunc(prefix+"/{.*}", a.middleware(a.getNotFound, false)).Methods(http.MethodGet)
}

func (a *API) getNotFound(ctx context.Context, res *common.HttpResponseWriter) error {
	res.WriteHeader(http.StatusNotFound)
	return nil
}

// @Summary Get the api status
// @Description Get the api status
// @ID mood-analytics-api-getstatus
// @Produce json
// @Success 200 {object} status.ApiStatus
// @Failure 500 {object} status.ApiStatus
// @Router /status [get]
func (a *API) getStatus(res http.ResponseWriter, req *http.Request) {
	start := time.Now()
	var s status.ApiStatus
	if err := a.databaseAdapter.Ping(); err != nil {
		errorLog := errorStatusCheck.SetInternalMessage(err)
		a.logError(&errorLog, start)
		s = status.NewApiStatus(errorLog.Status, err.Error())
	} else {
		s = status.NewApiStatus(http.StatusOK, "OK")
	}
	if jsonDetails, err := json.Marshal(s); err != nil {
		a.jsonError(res, errorLoadingEvents.SetInternalMessage(err), start)
	} else {
		res.Header().Add("content-type", "application/json")
		res.WriteHeader(s.Status.Code)
		res.Write(jsonDetails)
	}
}

// log error detail and write as application/json
func (a *API) jsonError(res http.ResponseWriter, err common.DetailedError, startedAt time.Time) {
	a.logError(&err, startedAt)
	jsonErr, _ := json.Marshal(err)

	res.Header().Add("content-type", "application/json")
	res.WriteHeader(err.Status)
	res.Write(jsonErr)
}

func (a *API) logError(err *common.DetailedError, startedAt time.Time) {
	err.ID = uuid.New().String()
	a.logger.Error().
		Str("errorId", err.ID).
		Str("code", err.Code).
		Str("internal", err.InternalMessage).
		Float64("seconds", time.Since(startedAt).Seconds()).
		Msg(err.Message)
}

func (a *API) isAuthorized(req *http.Request, targetUserIDs []string) bool {
	td := a.authClient.Authenticate(req)
	if td == nil {
		a.logger.Warn().Str("remote", req.RemoteAddr).Str("method", req.Method).Str("url", req.URL.String()).Msg("missing header token")
		return false
	}
	if td.IsServer {
		return true
	}
	if len(targetUserIDs) == 1 && td.UserId == targetUserIDs[0] {
		return true
	}

	auth, err := a.perms.GetOpaAuth(req)
	if err != nil {
		a.logger.Error().Err(err).Msg("opa authorization error")
		return false
	}
	return auth.Result.Authorized
}
