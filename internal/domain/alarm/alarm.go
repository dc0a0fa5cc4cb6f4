package alarm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAlarm is returned when an alarm carries a malformed time of day.
var ErrInvalidAlarm = errors.New("invalid alarm")

// TimeOfDay is a wall-clock time with minute precision.
// Seconds are not part of alarm identity and are always treated as zero.
type TimeOfDay struct {
	// Hour is the hour of the day in the 24-hour clock, 0-23.
	Hour int
	// Minute is the minute within the hour, 0-59.
	Minute int
}

// Valid reports whether the time is within the 24-hour clock range.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// Equal reports whether two times name the same minute of the day.
func (t TimeOfDay) Equal(other TimeOfDay) bool {
	return t.Hour == other.Hour && t.Minute == other.Minute
}

// String formats the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Wire formats the time as "HH:MM:SS" with seconds fixed at zero,
// matching the format the remote alarm store exchanges.
func (t TimeOfDay) Wire() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS". Seconds, if present, are discarded.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("%w: time %q is not HH:MM or HH:MM:SS", ErrInvalidAlarm, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: hour in %q: %w", ErrInvalidAlarm, s, err)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: minute in %q: %w", ErrInvalidAlarm, s, err)
	}

	t := TimeOfDay{Hour: hour, Minute: minute}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("%w: time %q out of range", ErrInvalidAlarm, s)
	}

	return t, nil
}

// Alarm is a single daily-recurring alarm record.
type Alarm struct {
	// ID uniquely identifies the alarm. Opaque to the engine.
	ID string
	// Time is the time of day the alarm should fire, minute precision.
	Time TimeOfDay
	// Title is the user-visible alarm label.
	Title string
	// Active indicates whether the alarm participates in scheduling.
	Active bool
}

// Validate checks that the alarm is well formed.
func (a *Alarm) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidAlarm)
	}

	if !a.Time.Valid() {
		return fmt.Errorf("%w: time %02d:%02d out of range", ErrInvalidAlarm, a.Time.Hour, a.Time.Minute)
	}

	return nil
}

// Clone returns a copy of the alarm to avoid leaking internal references.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}
