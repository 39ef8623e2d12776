package infrastructure

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mdblp/mood-analytics/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	goComMgo "github.com/tidepool-org/go-common/clients/mongo"
)

var testingConfig = &goComMgo.Config{
	Timeout:                2 * time.Second,
	WaitConnectionInterval: 5 * time.Second,
	MaxConnectionAttempts:  0,
}

func july(d int, hour int) time.Time {
	return time.Date(2025, time.July, d, hour, 0, 0, 0, time.UTC)
}

func entry(id string, userID string, ts time.Time, mood int) schema.MoodObservation {
	return schema.MoodObservation{
		ID:         id,
		UserID:     userID,
		Timestamp:  ts,
		MoodScore:  mood,
		MoodType:   schema.MoodCalm,
		Energy:     5,
		Anxiety:    5,
		Stress:     5,
		SleepHours: 7,
		Activities: []string{"walk"},
	}
}

// before needs a running mongo, the test is skipped when TIDEPOOL_STORE_ADDRESSES is not set
func before(t *testing.T, docs ...interface{}) *MoodMongoRepository {
	var ctx = context.Background()

	if _, exist := os.LookupEnv("TIDEPOOL_STORE_ADDRESSES"); !exist {
		t.Skip("TIDEPOOL_STORE_ADDRESSES is not set")
	}
	if _, exist := os.LookupEnv("TIDEPOOL_STORE_DATABASE"); !exist {
		t.Setenv("TIDEPOOL_STORE_DATABASE", "mood_test")
	}
	testingConfig.FromEnv()

	mongoLogger := log.New(os.Stdout, "mongo-test ", log.LstdFlags|log.LUTC|log.Lshortfile)
	store, err := NewMoodMongoRepository(testingConfig, zerolog.Nop(), mongoLogger)
	if err != nil {
		t.Fatalf("Unexpected error while creating store: %s", err)
	}
	store.Start()
	store.WaitUntilStarted()

	if len(docs) > 0 {
		if _, err := moodCollection(store).InsertMany(ctx, docs); err != nil {
			t.Error("Unable to insert documents", err)
		}
	}
	t.Cleanup(func() {
		moodCollection(store).Drop(ctx)
		store.Close()
	})
	return store
}

func TestGenerateMoodQuery(t *testing.T) {
	paris := time.FixedZone("CEST", 2*3600)
	dates := schema.DateRange{
		Start: time.Date(2025, time.July, 1, 0, 0, 0, 0, paris),
		End:   time.Date(2025, time.July, 31, 23, 59, 59, 0, paris),
	}
	tests := []struct {
		name  string
		dates schema.DateRange
		want  bson.M
	}{
		{
			name:  "bounded range in utc",
			dates: dates,
			want: bson.M{
				"userId": "user1",
				"timestamp": bson.M{
					"$gte": time.Date(2025, time.June, 30, 22, 0, 0, 0, time.UTC),
					"$lte": time.Date(2025, time.July, 31, 21, 59, 59, 0, time.UTC),
				},
			},
		},
		{
			name:  "open range",
			dates: schema.DateRange{},
			want:  bson.M{"userId": "user1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generateMoodQuery("user1", tt.dates))
		})
	}
}

func TestMemoryMoodRepository(t *testing.T) {
	repository := NewMemoryMoodRepository(
		entry("a", "user1", july(1, 9), 6),
		entry("b", "user2", july(2, 9), 7),
		entry("c", "user1", july(20, 9), 8),
	)
	dates := schema.DateRange{Start: july(1, 0), End: july(10, 0)}

	observations, err := repository.FetchObservations(context.Background(), "trace", "user1", dates)

	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "a", observations[0].ID)
	assert.Equal(t, []string{"user1", "user2"}, repository.Users())
	assert.Equal(t, 1, repository.Calls())
}

func TestMemoryMoodRepository_ConcurrentFetches(t *testing.T) {
	repository := NewMemoryMoodRepository(entry("a", "user1", july(1, 9), 6))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			observations, err := repository.FetchObservations(context.Background(), "trace", "user1", schema.DateRange{Start: july(1, 0), End: july(2, 0)})
			assert.NoError(t, err)
			assert.Len(t, observations, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, repository.Calls())
}

func TestLoadMemoryMoodRepository(t *testing.T) {
	valid := `[{"id":"a","userId":"user1","timestamp":"2025-07-01T09:00:00Z","moodScore":6,"moodType":"calm","energy":5,"anxiety":5,"stress":5,"sleepHours":7,"activities":["walk"]}]`
	repository, err := LoadMemoryMoodRepository(strings.NewReader(valid))
	require.NoError(t, err)
	assert.Len(t, repository.Observations, 1)

	invalid := `[{"id":"a","userId":"user1","timestamp":"2025-07-01T09:00:00Z","moodScore":11,"moodType":"calm","energy":5,"anxiety":5,"stress":5,"sleepHours":7}]`
	_, err = LoadMemoryMoodRepository(strings.NewReader(invalid))
	assert.ErrorContains(t, err, "moodScore")
}

func TestMoodMongoRepository_FetchObservations(t *testing.T) {
	invalid := entry("bad", "user1", july(3, 9), 42)
	store := before(t,
		entry("b", "user1", july(2, 9), 7),
		entry("a", "user1", july(1, 9), 6),
		entry("other", "user2", july(1, 9), 6),
		entry("late", "user1", july(20, 9), 6),
		invalid,
		bson.M{"_id": "broken", "userId": "user1", "timestamp": "not a date"},
	)
	dates := schema.DateRange{Start: july(1, 0), End: schema.EndOfDay(july(10, 0), time.UTC)}

	observations, err := store.FetchObservations(context.Background(), "trace", "user1", dates)

	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, "a", observations[0].ID)
	assert.Equal(t, "b", observations[1].ID)
	assert.Equal(t, []string{"walk"}, observations[0].Activities)
}

func TestMoodMongoRepository_FetchObservationsCancelled(t *testing.T) {
	store := before(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.FetchObservations(ctx, "trace", "user1", schema.DateRange{})
	assert.Error(t, err)
}
