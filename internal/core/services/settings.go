package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
	"github.com/custodia-labs/sightline/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyRecordingInterval     = "recording.interval"
	keyRecordingSimilarity   = "recording.similarity_threshold"
	keyRecordingHeading      = "recording.heading_threshold"
	keyRecordingUTurn        = "recording.uturn_threshold"
	keyRecordingConcurrency  = "recording.batch_concurrency"
	keyRecordingStride       = "recording.stride_length"
	keyRecordingRemovePeople = "recording.remove_people"
	keyScanTargetStep        = "scan.target_step"
	keyScanCaptureAngle      = "scan.capture_angle"
	keyScanDwell             = "scan.dwell"
	keyScanVoteThreshold     = "scan.vote_threshold"
	keyScanMinVotes          = "scan.min_votes"
	keyScanMinConfidence     = "scan.min_confidence"
	keyNavInterval           = "navigation.interval"
	keyNavReached            = "navigation.reached_threshold"
	keyNavApproach           = "navigation.approach_threshold"
	keyNavOffTrack           = "navigation.offtrack_threshold"
	keyNavOffTrackLimit      = "navigation.offtrack_limit"
	keyNavReorientTimeout    = "navigation.reorient_timeout"
	keyNavCaptureAngle       = "navigation.capture_angle"
	keyGatewayBaseURL        = "gateway.base_url"
	keyGatewayTimeout        = "gateway.timeout"
	keyGatewayRateLimit      = "gateway.rate_limit"
	keySensorsFramesDir      = "sensors.frames_dir"
	keySensorsCompassAddr    = "sensors.compass_addr"
	keySensorsSpeechOutput   = "sensors.speech_output"
)

// setting binds a config key to a field of AppSettings. field returns a
// pointer to one of *time.Duration, *float64, *int, *bool or *string.
type setting struct {
	key   string
	field func(*domain.AppSettings) any
}

var settingsTable = []setting{
	{keyRecordingInterval, func(a *domain.AppSettings) any { return &a.Recording.Interval }},
	{keyRecordingSimilarity, func(a *domain.AppSettings) any { return &a.Recording.SimilarityThreshold }},
	{keyRecordingHeading, func(a *domain.AppSettings) any { return &a.Recording.HeadingThreshold }},
	{keyRecordingUTurn, func(a *domain.AppSettings) any { return &a.Recording.UTurnAngle }},
	{keyRecordingConcurrency, func(a *domain.AppSettings) any { return &a.Recording.BatchConcurrency }},
	{keyRecordingStride, func(a *domain.AppSettings) any { return &a.Recording.StrideLength }},
	{keyRecordingRemovePeople, func(a *domain.AppSettings) any { return &a.Recording.RemovePeople }},
	{keyScanTargetStep, func(a *domain.AppSettings) any { return &a.Scan.TargetStep }},
	{keyScanCaptureAngle, func(a *domain.AppSettings) any { return &a.Scan.CaptureAngle }},
	{keyScanDwell, func(a *domain.AppSettings) any { return &a.Scan.Dwell }},
	{keyScanVoteThreshold, func(a *domain.AppSettings) any { return &a.Scan.VoteThreshold }},
	{keyScanMinVotes, func(a *domain.AppSettings) any { return &a.Scan.MinVotes }},
	{keyScanMinConfidence, func(a *domain.AppSettings) any { return &a.Scan.MinConfidence }},
	{keyNavInterval, func(a *domain.AppSettings) any { return &a.Navigation.Interval }},
	{keyNavReached, func(a *domain.AppSettings) any { return &a.Navigation.ReachedThreshold }},
	{keyNavApproach, func(a *domain.AppSettings) any { return &a.Navigation.ApproachThreshold }},
	{keyNavOffTrack, func(a *domain.AppSettings) any { return &a.Navigation.OffTrackThreshold }},
	{keyNavOffTrackLimit, func(a *domain.AppSettings) any { return &a.Navigation.OffTrackLimit }},
	{keyNavReorientTimeout, func(a *domain.AppSettings) any { return &a.Navigation.ReorientTimeout }},
	{keyNavCaptureAngle, func(a *domain.AppSettings) any { return &a.Navigation.CaptureAngle }},
	{keyGatewayBaseURL, func(a *domain.AppSettings) any { return &a.Gateway.BaseURL }},
	{keyGatewayTimeout, func(a *domain.AppSettings) any { return &a.Gateway.Timeout }},
	{keyGatewayRateLimit, func(a *domain.AppSettings) any { return &a.Gateway.RateLimit }},
	{keySensorsFramesDir, func(a *domain.AppSettings) any { return &a.Sensors.FramesDir }},
	{keySensorsCompassAddr, func(a *domain.AppSettings) any { return &a.Sensors.CompassAddr }},
	{keySensorsSpeechOutput, func(a *domain.AppSettings) any { return &a.Sensors.SpeechOutput }},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Keys missing from the
// config store keep their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.load()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings in %s: %w", s.configStore.Path(), err)
	}
	return settings, nil
}

func (s *SettingsService) load() *domain.AppSettings {
	settings := domain.DefaultAppSettings()
	for _, st := range settingsTable {
		if _, ok := s.configStore.Get(st.key); !ok {
			continue
		}
		switch p := st.field(&settings).(type) {
		case *time.Duration:
			if d := s.configStore.GetDuration(st.key); d > 0 {
				*p = d
			}
		case *float64:
			*p = s.configStore.GetFloat(st.key)
		case *int:
			*p = s.configStore.GetInt(st.key)
		case *bool:
			*p = s.configStore.GetBool(st.key)
		case *string:
			*p = s.configStore.GetString(st.key)
		}
	}
	return &settings
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	for _, st := range settingsTable {
		if err := s.configStore.Set(st.key, fieldValue(st.field(settings))); err != nil {
			return fmt.Errorf("save %s: %w", st.key, err)
		}
	}
	return nil
}

// Set updates a single setting from its string form. The result must
// still validate as a whole before anything is written.
func (s *SettingsService) Set(key, value string) error {
	var st *setting
	for i := range settingsTable {
		if settingsTable[i].key == key {
			st = &settingsTable[i]
			break
		}
	}
	if st == nil {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	settings := s.load()
	if err := parseInto(st.field(settings), value); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(key, fieldValue(st.field(settings))); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised setting key in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsTable))
	for i, st := range settingsTable {
		keys[i] = st.key
	}
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Lookup returns the current value of key formatted for display.
func Lookup(settings *domain.AppSettings, key string) (string, bool) {
	for _, st := range settingsTable {
		if st.key == key {
			return formatField(st.field(settings)), true
		}
	}
	return "", false
}

func parseInto(field any, value string) error {
	switch p := field.(type) {
	case *time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*p = d
	case *float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*p = f
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*p = n
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*p = b
	case *string:
		*p = value
	}
	return nil
}

func fieldValue(field any) any {
	switch p := field.(type) {
	case *time.Duration:
		return p.String()
	case *float64:
		return *p
	case *int:
		return *p
	case *bool:
		return *p
	case *string:
		return *p
	default:
		return nil
	}
}

func formatField(field any) string {
	switch p := field.(type) {
	case *time.Duration:
		return p.String()
	case *float64:
		return strconv.FormatFloat(*p, 'g', -1, 64)
	case *int:
		return strconv.Itoa(*p)
	case *bool:
		return strconv.FormatBool(*p)
	case *string:
		return *p
	default:
		return ""
	}
}
