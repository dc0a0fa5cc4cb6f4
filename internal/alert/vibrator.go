package alert

import (
	"context"
	"time"

	"github.com/appzem/alarm-engine/internal/logger"
)

// Pattern describes one repeating vibration cycle.
type Pattern struct {
	// On is the buzz duration.
	On time.Duration
	// Off is the pause before the next buzz.
	Off time.Duration
}

// DefaultPattern mirrors the client's 500ms buzz, 1000ms pause cycle.
//
//nolint:gochecknoglobals // Shared read-only default.
var DefaultPattern = Pattern{On: 500 * time.Millisecond, Off: time.Second}

// SurfaceVibrator issues abstract start/stop vibration commands to the host
// notification surface. The engine does not own device APIs; this adapter
// records the commanded pattern so the surface (or the logs, when headless)
// can act on it.
type SurfaceVibrator struct {
	// pattern is the cycle commanded on Start.
	pattern Pattern
}

// NewSurfaceVibrator returns a vibrator commanding the given pattern.
// A zero pattern falls back to DefaultPattern.
func NewSurfaceVibrator(pattern Pattern) *SurfaceVibrator {
	if pattern.On <= 0 {
		pattern = DefaultPattern
	}

	return &SurfaceVibrator{pattern: pattern}
}

// Start issues the start-vibration command.
func (v *SurfaceVibrator) Start(ctx context.Context) error {
	logger.InfoKV(ctx, "Vibration started",
		"on", v.pattern.On.String(), "off", v.pattern.Off.String())

	return nil
}

// Stop issues the stop-vibration command.
func (v *SurfaceVibrator) Stop() {
	logger.Info(context.Background(), "Vibration stopped")
}
