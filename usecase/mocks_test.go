package usecase

import (
	"bytes"
	"context"

	"github.com/mdblp/mood-analytics/schema"
	"github.com/stretchr/testify/mock"
)

type MockMoodRepository struct {
	mock.Mock
}

func (m *MockMoodRepository) FetchObservations(ctx context.Context, traceID string, userID string, dates schema.DateRange) ([]schema.MoodObservation, error) {
	args := m.Called(ctx, traceID, userID, dates)
	observations, _ := args.Get(0).([]schema.MoodObservation)
	return observations, args.Error(1)
}

type MockUploader struct {
	mock.Mock
	uploaded []byte
}

func (m *MockUploader) Upload(ctx context.Context, filename string, buffer *bytes.Buffer) error {
	args := m.Called(ctx, filename, buffer)
	m.uploaded = append([]byte(nil), buffer.Bytes()...)
	return args.Error(0)
}
