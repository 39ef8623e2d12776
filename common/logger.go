package common

import (
	"io"
	"log"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

// NewLogger returns the service logger writing JSON lines to stdout.
// Use .Stack() on error events to get a stack trace.
func NewLogger(service string) zerolog.Logger {
	return newLogger(os.Stdout, service)
}

func newLogger(w io.Writer, service string) zerolog.Logger {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
	return zerolog.New(w).With().
		Str("service", service).
		Timestamp().
		Logger()
}

// StdLogger adapts logger for clients which only accept a *log.Logger (go-common mongo)
func StdLogger(logger zerolog.Logger, component string) *log.Logger {
	return log.New(logger.With().Str("component", component).Logger(), "", 0)
}
