package infrastructure

import (
	"context"
	"log"

	"github.com/mdblp/mood-analytics/schema"
	"github.com/rs/zerolog"
	goComMgo "github.com/tidepool-org/go-common/clients/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	moodCollectionName = "moodEntries"
	idxUserIDTimestamp = "UserIdTimestamp"
)

var moodIndexes = map[string][]mongo.IndexModel{
	moodCollectionName: {
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetName(idxUserIDTimestamp),
		},
	},
}

type (
	// errorCounter to record only the first error to avoid spamming the log
	errorCounter struct {
		firstError error
		numErrors  int
	}

	// MoodMongoRepository read only access to the mood entries collection
	MoodMongoRepository struct {
		*goComMgo.StoreClient
		logger zerolog.Logger
	}
)

func (e *errorCounter) add(err error) {
	e.numErrors++
	if e.firstError == nil {
		e.firstError = err
	}
}

// NewMoodMongoRepository creates a new mood repository for mongo.
// mongoLogger is the standard logger the go-common store client writes to.
func NewMoodMongoRepository(config *goComMgo.Config, logger zerolog.Logger, mongoLogger *log.Logger) (*MoodMongoRepository, error) {
	if config != nil {
		config.Indexes = moodIndexes
	}
	repository := MoodMongoRepository{logger: logger}
	store, err := goComMgo.NewStoreClient(config, mongoLogger)
	repository.StoreClient = store
	return &repository, err
}

func moodCollection(r *MoodMongoRepository) *mongo.Collection {
	return r.Collection(moodCollectionName)
}

// generateMoodQuery selects one user's entries within the range, bounds included
func generateMoodQuery(userID string, dates schema.DateRange) bson.M {
	query := bson.M{"userId": userID}
	timestamp := bson.M{}
	if !dates.Start.IsZero() {
		timestamp["$gte"] = dates.Start.UTC()
	}
	if !dates.End.IsZero() {
		timestamp["$lte"] = dates.End.UTC()
	}
	if len(timestamp) > 0 {
		query["timestamp"] = timestamp
	}
	return query
}

// FetchObservations returns the user's observations in the range sorted by timestamp.
// Entries which can't be decoded or are invalid are skipped, only the first error is logged.
func (r *MoodMongoRepository) FetchObservations(ctx context.Context, traceID string, userID string, dates schema.DateRange) ([]schema.MoodObservation, error) {
	opts := options.Find()
	opts.SetHint(idxUserIDTimestamp)
	opts.SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	opts.SetComment(traceID)

	cursor, err := moodCollection(r).Find(ctx, generateMoodQuery(userID, dates), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	observations := make([]schema.MoodObservation, 0)
	var decode, invalid errorCounter
	for cursor.Next(ctx) {
		var observation schema.MoodObservation
		if err := cursor.Decode(&observation); err != nil {
			decode.add(err)
			continue
		}
		if err := observation.Validate(); err != nil {
			invalid.add(err)
			continue
		}
		observations = append(observations, observation)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	if decode.numErrors > 0 {
		r.logger.Warn().Str("traceId", traceID).Str("userId", userID).Int("count", decode.numErrors).Err(decode.firstError).Msg("mood entries decode errors")
	}
	if invalid.numErrors > 0 {
		r.logger.Warn().Str("traceId", traceID).Str("userId", userID).Int("count", invalid.numErrors).Err(invalid.firstError).Msg("invalid mood entries skipped")
	}
	return observations, nil
}
