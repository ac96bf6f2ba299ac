package domain

import (
	"fmt"
	"time"
)

// RecordingSettings tunes path capture and compaction.
type RecordingSettings struct {
	// Interval between captures while walking.
	Interval time.Duration
	// SimilarityThreshold above which a waypoint is a compaction candidate.
	SimilarityThreshold float64
	// HeadingThreshold in degrees below which a waypoint is a compaction candidate.
	HeadingThreshold float64
	// UTurnAngle at or beyond which a turn is classified as a U-turn.
	UTurnAngle float64
	// BatchConcurrency bounds parallel embedding calls after recording.
	BatchConcurrency int
	// StrideLength in metres, used to turn steps into distance.
	StrideLength float64
	// RemovePeople runs the person detector and embeds people-free frames.
	RemovePeople bool
}

// ScanSettings tunes the 360° localization scan and vote.
type ScanSettings struct {
	// TargetStep is the spacing of scan targets in degrees.
	TargetStep float64
	// CaptureAngle is the half-width of the window around each target.
	CaptureAngle float64
	// Dwell is how long the heading must hold inside a window.
	Dwell time.Duration
	// VoteThreshold is the minimum best-match similarity for a sample to vote.
	VoteThreshold float64
	// MinVotes required to accept the majority location.
	MinVotes int
	// MinConfidence is the minimum average similarity to accept.
	MinConfidence float64
}

// Targets returns the number of scan targets around the circle.
func (s ScanSettings) Targets() int {
	if s.TargetStep <= 0 {
		return 0
	}
	return int(360 / s.TargetStep)
}

// NavigationSettings tunes turn-by-turn guidance.
type NavigationSettings struct {
	// Interval between embedding comparisons while navigating.
	Interval time.Duration
	// ReachedThreshold above which the current waypoint counts as reached.
	ReachedThreshold float64
	// ApproachThreshold at or above which the user is close to the waypoint.
	ApproachThreshold float64
	// OffTrackThreshold below which a tick counts as a miss.
	OffTrackThreshold float64
	// OffTrackLimit is the number of consecutive misses before reorienting.
	OffTrackLimit int
	// ReorientTimeout is how long comparison pauses after going off track.
	ReorientTimeout time.Duration
	// CaptureAngle is the heading tolerance when orienting.
	CaptureAngle float64
}

// GatewaySettings configures the embedding gateway client.
type GatewaySettings struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
}

// IsConfigured returns true if a gateway URL is set.
func (g GatewaySettings) IsConfigured() bool {
	return g.BaseURL != ""
}

// SensorSettings locates the camera frames, the compass feed and the
// speech output.
type SensorSettings struct {
	FramesDir   string
	CompassAddr string
	// SpeechOutput is a file or FIFO read by the speech daemon. Empty
	// means announcements only go to the terminal.
	SpeechOutput string
}

// AppSettings holds all user-configurable settings.
type AppSettings struct {
	Recording  RecordingSettings
	Scan       ScanSettings
	Navigation NavigationSettings
	Gateway    GatewaySettings
	Sensors    SensorSettings
}

// DefaultAppSettings returns sensible defaults for a first run.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Recording: RecordingSettings{
			Interval:            3 * time.Second,
			SimilarityThreshold: 0.95,
			HeadingThreshold:    10,
			UTurnAngle:          DefaultUTurnAngle,
			BatchConcurrency:    1,
			StrideLength:        0.7,
			RemovePeople:        true,
		},
		Scan: ScanSettings{
			TargetStep:    20,
			CaptureAngle:  10,
			Dwell:         750 * time.Millisecond,
			VoteThreshold: 0.6,
			MinVotes:      5,
			MinConfidence: 0.7,
		},
		Navigation: NavigationSettings{
			Interval:          time.Second,
			ReachedThreshold:  0.8,
			ApproachThreshold: 0.7,
			OffTrackThreshold: 0.5,
			OffTrackLimit:     3,
			ReorientTimeout:   10 * time.Second,
			CaptureAngle:      10,
		},
		Gateway: GatewaySettings{
			BaseURL:   "http://127.0.0.1:8000",
			Timeout:   30 * time.Second,
			RateLimit: 4,
		},
		Sensors: SensorSettings{
			CompassAddr: "127.0.0.1:5600",
		},
	}
}

// Validate checks that thresholds are in range and intervals are positive.
func (s AppSettings) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{s.Recording.Interval > 0, "recording.interval must be positive"},
		{inUnit(s.Recording.SimilarityThreshold), "recording.similarity_threshold must be in [0, 1]"},
		{s.Recording.HeadingThreshold >= 0 && s.Recording.HeadingThreshold < 180, "recording.heading_threshold must be in [0, 180)"},
		{s.Recording.UTurnAngle >= 0 && s.Recording.UTurnAngle <= 180, "recording.uturn_threshold must be in [0, 180]"},
		{s.Recording.BatchConcurrency >= 1, "recording.batch_concurrency must be at least 1"},
		{s.Recording.StrideLength >= 0, "recording.stride_length must not be negative"},
		{s.Scan.TargetStep > 0 && s.Scan.TargetStep <= 180, "scan.target_step must be in (0, 180]"},
		{s.Scan.CaptureAngle > 0 && s.Scan.CaptureAngle <= s.Scan.TargetStep/2, "scan.capture_angle must be positive and at most half of scan.target_step"},
		{s.Scan.Dwell > 0, "scan.dwell must be positive"},
		{inUnit(s.Scan.VoteThreshold), "scan.vote_threshold must be in [0, 1]"},
		{s.Scan.MinVotes >= 1, "scan.min_votes must be at least 1"},
		{inUnit(s.Scan.MinConfidence), "scan.min_confidence must be in [0, 1]"},
		{s.Navigation.Interval > 0, "navigation.interval must be positive"},
		{inUnit(s.Navigation.ReachedThreshold), "navigation.reached_threshold must be in [0, 1]"},
		{s.Navigation.OffTrackThreshold <= s.Navigation.ApproachThreshold, "navigation.offtrack_threshold must not exceed navigation.approach_threshold"},
		{s.Navigation.ApproachThreshold <= s.Navigation.ReachedThreshold, "navigation.approach_threshold must not exceed navigation.reached_threshold"},
		{s.Navigation.OffTrackLimit >= 1, "navigation.offtrack_limit must be at least 1"},
		{s.Navigation.ReorientTimeout > 0, "navigation.reorient_timeout must be positive"},
		{s.Navigation.CaptureAngle > 0 && s.Navigation.CaptureAngle < 180, "navigation.capture_angle must be in (0, 180)"},
		{s.Gateway.Timeout >= 0, "gateway.timeout must not be negative"},
		{s.Gateway.RateLimit >= 0, "gateway.rate_limit must not be negative"},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s", ErrInvalidInput, c.msg)
		}
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
