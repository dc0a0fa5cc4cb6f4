package clock

import (
	"time"

	"github.com/appzem/alarm-engine/internal/domain/alarm"
)

// Clock supplies the current wall-clock minute.
// Swappable so the scheduler can be driven deterministically in tests.
type Clock interface {
	Now() alarm.TimeOfDay
}

// System reads the local system clock.
type System struct{}

// Now returns the current local hour and minute.
func (System) Now() alarm.TimeOfDay {
	now := time.Now()

	return alarm.TimeOfDay{Hour: now.Hour(), Minute: now.Minute()}
}

// Func adapts a plain function to the Clock interface.
type Func func() alarm.TimeOfDay

// Now invokes the wrapped function.
func (f Func) Now() alarm.TimeOfDay {
	return f()
}
