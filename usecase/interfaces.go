package usecase

import (
	"bytes"
	"context"

	"github.com/mdblp/mood-analytics/schema"
	goComMgo "github.com/tidepool-org/go-common/clients/mongo"
)

// MoodRepository read only access to the stored mood observations.
// Observations may come back in any order, ctx deadline and cancellation are honoured.
type MoodRepository interface {
	FetchObservations(ctx context.Context, traceID string, userID string, dates schema.DateRange) ([]schema.MoodObservation, error)
}

type Uploader interface {
	Upload(ctx context.Context, filename string, buffer *bytes.Buffer) error
}

type DatabaseAdapter interface {
	goComMgo.Storage
}
