package alert

import (
	"context"
	"errors"
	"sync"

	"github.com/appzem/alarm-engine/internal/domain/alarm"
	"github.com/appzem/alarm-engine/internal/logger"
	"github.com/appzem/alarm-engine/internal/metrics"
)

// ErrResourceUnavailable wraps failures to acquire an alert primitive.
// It is always recovered: an alert degrades to whichever primitive started.
var ErrResourceUnavailable = errors.New("alert resource unavailable")

// Sounder starts and stops looping alarm sound playback.
// The engine never touches the underlying audio handle directly.
type Sounder interface {
	Start(ctx context.Context) error
	Stop()
}

// Vibrator starts and stops a repeating vibration pattern on the host surface.
type Vibrator interface {
	Start(ctx context.Context) error
	Stop()
}

// Session owns the side effects of one active alarm firing: looping sound and
// repeating vibration, both released exactly once on Close.
type Session struct {
	// alarm is the record that triggered this session.
	alarm alarm.Alarm
	// sounder holds the audio resource, nil when none was configured.
	sounder Sounder
	// vibrator drives the host vibration surface.
	vibrator Vibrator

	// soundActive records whether sound acquisition succeeded.
	soundActive bool
	// vibrationActive records whether vibration started.
	vibrationActive bool

	// closeOnce guarantees resources are released at most once.
	closeOnce sync.Once
}

// Open acquires sound and vibration for the given alarm. Failure to start
// either primitive is logged and non-fatal: the alert proceeds with whatever
// did start rather than failing silently. The returned session must be closed.
func Open(ctx context.Context, a alarm.Alarm, sounder Sounder, vibrator Vibrator) *Session {
	s := &Session{
		alarm:    a,
		sounder:  sounder,
		vibrator: vibrator,
	}

	if sounder != nil {
		if err := sounder.Start(ctx); err != nil {
			metrics.IncAlertResourceFailure("sound")
			logger.WarnKV(ctx, "Alarm sound unavailable, degrading to vibration",
				"alarm_id", a.ID, "error", err)
		} else {
			s.soundActive = true
		}
	}

	if vibrator != nil {
		if err := vibrator.Start(ctx); err != nil {
			metrics.IncAlertResourceFailure("vibration")
			logger.WarnKV(ctx, "Vibration unavailable", "alarm_id", a.ID, "error", err)
		} else {
			s.vibrationActive = true
		}
	}

	return s
}

// Alarm returns the record that triggered the session.
func (s *Session) Alarm() alarm.Alarm {
	return s.alarm
}

// SoundActive reports whether looping sound playback is running.
func (s *Session) SoundActive() bool {
	return s.soundActive
}

// VibrationActive reports whether the vibration pattern is running.
func (s *Session) VibrationActive() bool {
	return s.vibrationActive
}

// Close stops vibration and stops and releases the audio resource.
// Safe to call multiple times and after partial acquisition failure.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.soundActive {
			s.sounder.Stop()
			s.soundActive = false
		}

		if s.vibrationActive {
			s.vibrator.Stop()
			s.vibrationActive = false
		}
	})
}
