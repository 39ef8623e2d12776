package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/mdblp/mood-analytics/schema"
)

// MemoryMoodRepository in memory record store, used by unit tests and by the offline cli
type MemoryMoodRepository struct {
	Observations []schema.MoodObservation
	// FetchError returned by FetchObservations when set
	FetchError error
	calls atomic.Int64
}

func NewMemoryMoodRepository(observations ...schema.MoodObservation) *MemoryMoodRepository {
	return &MemoryMoodRepository{Observations: observations}
}

// LoadMemoryMoodRepository reads a JSON array of observations, every one must be valid
func LoadMemoryMoodRepository(r io.Reader) (*MemoryMoodRepository, error) {
	var observations []schema.MoodObservation
	if err := json.NewDecoder(r).Decode(&observations); err != nil {
		return nil, fmt.Errorf("decoding observations: %w", err)
	}
	for _, o := range observations {
		if err := o.Validate(); err != nil {
			return nil, err
		}
	}
	return NewMemoryMoodRepository(observations...), nil
}

// FetchObservations the user's observations within the range, in storage order
func (m *MemoryMoodRepository) FetchObservations(ctx context.Context, traceID string, userID string, dates schema.DateRange) ([]schema.MoodObservation, error) {
	m.calls.Add(1)
	if m.FetchError != nil {
		return nil, fmt.Errorf("{%s} - [%s] - %w", traceID, userID, m.FetchError)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := make([]schema.MoodObservation, 0, len(m.Observations))
	for _, o := range m.Observations {
		if o.UserID == userID && dates.Contains(o.Timestamp) {
			res = append(res, o)
		}
	}
	return res, nil
}

// Calls number of FetchObservations calls, safe to read while fetches run
func (m *MemoryMoodRepository) Calls() int {
	return int(m.calls.Load())
}

// Users distinct user ids of the stored observations, in first seen order
func (m *MemoryMoodRepository) Users() []string {
	seen := make(map[string]struct{})
	users := make([]string, 0, 1)
	for _, o := range m.Observations {
		if _, found := seen[o.UserID]; !found {
			seen[o.UserID] = struct{}{}
			users = append(users, o.UserID)
		}
	}
	return users
}
