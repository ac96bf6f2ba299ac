package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 3*time.Second, s.Recording.Interval)
	assert.Equal(t, 0.95, s.Recording.SimilarityThreshold)
	assert.Equal(t, 10.0, s.Recording.HeadingThreshold)
	assert.Equal(t, 18, s.Scan.Targets())
	assert.Equal(t, 750*time.Millisecond, s.Scan.Dwell)
	assert.Equal(t, 5, s.Scan.MinVotes)
	assert.Equal(t, 0.8, s.Navigation.ReachedThreshold)
	assert.Equal(t, 0.5, s.Navigation.OffTrackThreshold)
	assert.Equal(t, 3, s.Navigation.OffTrackLimit)
	assert.Equal(t, 10*time.Second, s.Navigation.ReorientTimeout)
	assert.True(t, s.Gateway.IsConfigured())

	require.NoError(t, s.Validate())
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppSettings)
	}{
		{"zero recording interval", func(s *AppSettings) { s.Recording.Interval = 0 }},
		{"similarity above one", func(s *AppSettings) { s.Recording.SimilarityThreshold = 1.5 }},
		{"no batch workers", func(s *AppSettings) { s.Recording.BatchConcurrency = 0 }},
		{"zero target step", func(s *AppSettings) { s.Scan.TargetStep = 0 }},
		{"capture wider than step", func(s *AppSettings) { s.Scan.CaptureAngle = 15 }},
		{"zero dwell", func(s *AppSettings) { s.Scan.Dwell = 0 }},
		{"zero min votes", func(s *AppSettings) { s.Scan.MinVotes = 0 }},
		{"off track above approach", func(s *AppSettings) { s.Navigation.OffTrackThreshold = 0.75 }},
		{"approach above reached", func(s *AppSettings) { s.Navigation.ApproachThreshold = 0.9 }},
		{"zero off track limit", func(s *AppSettings) { s.Navigation.OffTrackLimit = 0 }},
		{"negative rate", func(s *AppSettings) { s.Gateway.RateLimit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestScanSettings_Targets(t *testing.T) {
	assert.Equal(t, 0, ScanSettings{}.Targets())
	assert.Equal(t, 12, ScanSettings{TargetStep: 30}.Targets())
}
