package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mdblp/mood-analytics/common"
	"github.com/rs/zerolog"
)

// HandlerLoggerFunc expose our httpResponseWriter API
type HandlerLoggerFunc func(context.Context, *common.HttpResponseWriter) error

const (
	traceHeader   = "x-tidepool-trace-session"
	maxUserIDSize = 64
)

var emptyUserIDs = []string{}

// middleware decodes the route, checks the permissions, calls fn and logs one line per request
func (a *API) middleware(fn HandlerLoggerFunc, checkPermissions bool, params ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		start := time.Now().UTC()

		// Read everything we need from the request before writing
		logErrors := make([]string, 0, 5)
		logRequest := fmt.Sprintf("%s %s HTTP/%d.%d", r.Method, r.URL.String(), r.ProtoMajor, r.ProtoMinor)

		traceID := r.Header.Get(traceHeader)
		if !common.IsValidUUID(traceID) {
			// A trace id is wanted but not enforced
			logErrors = append(logErrors, fmt.Sprintf("no-trace:%q", traceID))
			traceID = uuid.New().String()
		}

		ctx := common.TimeItContext(r.Context())

		res := common.HttpResponseWriter{
			Header:     r.Header.Clone(),
			URL:        r.URL,
			TraceID:    traceID,
			StatusCode: http.StatusOK,
		}

		userIDs := emptyUserIDs
		if len(params) > 0 {
			res.VARS = mux.Vars(r)

			if common.Contains(params, "userID") {
				userID := res.VARS["userID"]
				userIDs = []string{userID}

				// Partial check, keeps obviously forged ids away from the store
				if len(userID) > maxUserIDSize {
					res.WriteError(&common.DetailedError{
						Status:          http.StatusBadRequest,
						Code:            "invalid_userid",
						Message:         "Invalid parameter userId",
						InternalMessage: fmt.Sprintf("userID longer than %d characters", maxUserIDSize),
					})
				}
			}
		}

		if res.Err == nil && checkPermissions && !a.isAuthorized(r, userIDs) {
			res.WriteError(&errorNoViewPermission)
		}

		// No read from the request below this point
		if res.Err == nil {
			if err = fn(ctx, &res); err != nil {
				logErrors = append(logErrors, fmt.Sprintf("efn:%q", err))
			}
		}

		w.Header().Add("Content-Type", res.GetContentType())
		w.Header().Add(traceHeader, traceID)
		w.WriteHeader(res.StatusCode)
		if _, err = w.Write([]byte(res.WriteBuffer.String())); err != nil {
			logErrors = append(logErrors, fmt.Sprintf("eww:%q", err))
		}

		var event *zerolog.Event
		if res.StatusCode >= http.StatusInternalServerError {
			event = a.logger.Error()
		} else {
			event = a.logger.Info()
		}
		if res.Err != nil {
			event = event.Str("code", res.Err.Code)
			if res.Err.InternalMessage != "" {
				event = event.Str("internal", res.Err.InternalMessage)
			}
		}
		if len(logErrors) > 0 {
			event = event.Strs("errors", logErrors)
		}
		if timers := common.TimeResults(ctx); timers != "" {
			event = event.Str("timers", timers)
		}
		event.
			Str("traceId", traceID).
			Str("remote", r.RemoteAddr).
			Int("status", res.StatusCode).
			Int64("ms", time.Since(start).Milliseconds()).
			Int("bytes", res.Size).
			Msg(logRequest)
	}
}
