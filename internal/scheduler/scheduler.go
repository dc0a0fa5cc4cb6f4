package scheduler

import (
	"github.com/appzem/alarm-engine/internal/clock"
	"github.com/appzem/alarm-engine/internal/domain/alarm"
)

// Match is the scheduler's detection that an active alarm is due now
// and has not fired yet within the current minute.
type Match struct {
	// Alarm is a copy of the matched record.
	Alarm alarm.Alarm
	// At is the minute the match was detected.
	At alarm.TimeOfDay
}

// Scheduler compares the clock against an alarm list once per tick and
// deduplicates fires per (alarm, minute) pair.
//
// Scheduler is not safe for concurrent use; the engine serializes Tick
// against registry mutation under a single lock.
type Scheduler struct {
	// clock supplies the current minute.
	clock clock.Clock
	// fired maps alarm id to the minute of its last fire.
	// Records live for the engine's lifetime only; alarms are
	// daily-recurring, so only current-minute dedup matters.
	fired map[string]alarm.TimeOfDay
}

// New creates a scheduler reading time from the provided clock.
func New(c clock.Clock) *Scheduler {
	return &Scheduler{
		clock: c,
		fired: make(map[string]alarm.TimeOfDay),
	}
}

// Tick reads the clock once, then returns a match for every active alarm
// whose time of day equals the current minute and whose fire record does not
// already name that minute. Matches come back in the order alarms were given.
// Fire records are updated as matches are emitted.
//
// A minute skipped between ticks is silently missed; there is no catch-up
// firing for past minutes.
func (s *Scheduler) Tick(alarms []alarm.Alarm) []Match {
	now := s.clock.Now()

	var matches []Match

	for _, a := range alarms {
		if !a.Active || !a.Time.Equal(now) {
			continue
		}

		if last, ok := s.fired[a.ID]; ok && last.Equal(now) {
			continue
		}

		s.fired[a.ID] = now
		matches = append(matches, Match{Alarm: a, At: now})
	}

	return matches
}

// Forget drops the fire record for an alarm, typically after deletion.
func (s *Scheduler) Forget(id string) {
	delete(s.fired, id)
}

// FiredAt returns the minute of the alarm's last fire, if any.
func (s *Scheduler) FiredAt(id string) (alarm.TimeOfDay, bool) {
	last, ok := s.fired[id]

	return last, ok
}
