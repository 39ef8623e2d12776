package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mdblp/mood-analytics/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMoodAnalytics_ExportStructuredRoundTrip(t *testing.T) {
	repository := &MockMoodRepository{}
	repository.On("FetchObservations", mock.Anything, mock.Anything, "user1", rangeOf(july(1, 0), schema.EndOfDay(today, time.UTC))).Return(weekScenario(), nil)
	analytics := newTestAnalytics(repository)

	buffer, format, err := analytics.Export(context.Background(), ExportArgs{
		UserID: "user1",
		From:   july(1, 0),
		To:     schema.EndOfDay(today, time.UTC),
	})

	require.NoError(t, err)
	repository.AssertExpectations(t)
	assert.Equal(t, FormatStructured, format)
	var document ExportDocument
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &document))
	assert.Len(t, document.Observations, 7)
	assert.Equal(t, 7, document.Streaks.Current)
	require.NotNil(t, document.Correlations)
	assert.Len(t, document.DailyBuckets, 7)

	again, err := EncodeExport(&document, FormatStructured)
	require.NoError(t, err)
	assert.Equal(t, buffer.String(), again.String())
}

func TestMoodAnalytics_ExportTabular(t *testing.T) {
	observations := weekScenario()
	observations[2].Activities = []string{"yoga", "Exercise", "yoga"}
	observations[3].SocialContext = ""
	repository := &MockMoodRepository{}
	repository.On("FetchObservations", mock.Anything, mock.Anything, "user1", mock.Anything).Return(observations, nil)
	analytics := newTestAnalytics(repository)

	buffer, format, err := analytics.Export(context.Background(), ExportArgs{UserID: "user1", Format: "tabular"})

	require.NoError(t, err)
	assert.Equal(t, FormatTabular, format)
	assert.Equal(t, "text/csv", format.ContentType())
	rows, err := csv.NewReader(bytes.NewReader(buffer.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(observations)+1)
	header := rows[0]
	assert.Equal(t, []string{"activities", "anxiety", "energy", "id", "moodScore", "moodType", "sleepHours", "socialContext", "stress", "timestamp", "userId"}, header)
	assert.Equal(t, "Exercise;yoga", rows[3][0])
	assert.Equal(t, "", rows[4][7])
	assert.Equal(t, "2025-07-25T09:00:00Z", rows[1][9])
}

func TestMoodAnalytics_ExportWithoutObservations(t *testing.T) {
	repository := &MockMoodRepository{}
	repository.On("FetchObservations", mock.Anything, mock.Anything, "user1", mock.Anything).Return([]schema.MoodObservation{}, nil)
	analytics := newTestAnalytics(repository)

	buffer, _, err := analytics.Export(context.Background(), ExportArgs{UserID: "user1", Format: "tabular"})
	require.NoError(t, err)
	assert.Equal(t, 0, buffer.Len())

	buffer, _, err = analytics.Export(context.Background(), ExportArgs{UserID: "user1"})
	require.NoError(t, err)
	var document map[string]interface{}
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &document))
	assert.Nil(t, document["correlations"])
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2025, time.July, 31, 20, 15, 3, 0, time.UTC)
	assert.Equal(t, "user1_20250731T201503Z.json", ExportFilename("user1", at, FormatStructured))
	assert.Equal(t, "user1_20250731T201503Z.csv", ExportFilename("user1", at, FormatTabular))
}

func TestExporter_Export(t *testing.T) {
	exportTime := time.Date(2025, time.July, 31, 20, 15, 3, 0, time.UTC)
	args := ExportArgs{UserID: "user1", TraceID: "trace1"}

	tests := []struct {
		name        string
		fetchError  error
		uploadError error
		wantUpload  bool
	}{
		{name: "should not call uploader when the fetch failed", fetchError: errors.New("boom")},
		{name: "should upload when the export succeeded", wantUpload: true},
		{name: "should only log an upload failure", uploadError: errors.New("access denied"), wantUpload: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repository := &MockMoodRepository{}
			if tt.fetchError != nil {
				repository.On("FetchObservations", mock.Anything, "trace1", "user1", mock.Anything).Return(nil, tt.fetchError)
			} else {
				repository.On("FetchObservations", mock.Anything, "trace1", "user1", mock.Anything).Return(weekScenario(), nil)
			}
			uploader := &MockUploader{}
			uploader.On("Upload", mock.Anything, "user1_20250731T201503Z.json", mock.AnythingOfType("*bytes.Buffer")).Return(tt.uploadError)

			exporter := NewExporter(zerolog.Nop(), newTestAnalytics(repository), uploader)
			exporter.now = func() time.Time { return exportTime }
			exporter.Export(args)

			repository.AssertExpectations(t)
			if tt.wantUpload {
				uploader.AssertExpectations(t)
				var document ExportDocument
				require.NoError(t, json.Unmarshal(uploader.uploaded, &document))
				assert.Equal(t, "user1", document.UserID)
			} else {
				uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
