package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appzem/alarm-engine/internal/alert"
	"github.com/appzem/alarm-engine/internal/clock"
	"github.com/appzem/alarm-engine/internal/domain/alarm"
	"github.com/appzem/alarm-engine/internal/logger"
	"github.com/appzem/alarm-engine/internal/metrics"
	"github.com/appzem/alarm-engine/internal/mission"
	"github.com/appzem/alarm-engine/internal/registry"
	"github.com/appzem/alarm-engine/internal/scheduler"
)

// State names the engine's per-cycle position: idle or alerting.
type State string

const (
	// StateIdle means no alert session is open.
	StateIdle State = "idle"
	// StateAlerting means a session is sounding and awaiting a mission answer.
	StateAlerting State = "alerting"
)

const (
	// DefaultInterval is the scheduler tick period. Coarser than one second
	// avoids redundant wake-ups; anything above a minute could skip a
	// matching minute entirely, so Validate caps it at 60s.
	DefaultInterval = 30 * time.Second

	// DefaultRemoteTimeout bounds best-effort pushes to the remote alarm store.
	DefaultRemoteTimeout = 5 * time.Second
)

var (
	// ErrNoActiveAlert is returned for answer/cancel requests while idle.
	ErrNoActiveAlert = errors.New("no active alert")
	// ErrAlarmNotFound is returned when an operation names an unknown alarm.
	ErrAlarmNotFound = errors.New("alarm not found")
)

// RemoteStore mirrors registry mutations to the remote alarm store.
// All pushes are best-effort; the registry stays authoritative for scheduling.
type RemoteStore interface {
	Create(ctx context.Context, a alarm.Alarm) error
	Update(ctx context.Context, a alarm.Alarm) error
	Remove(ctx context.Context, id string) error
}

// Options wires the engine's collaborators.
type Options struct {
	// Clock supplies the current minute. Defaults to the system clock.
	Clock clock.Clock
	// Sounder provides looping alarm sound. Optional.
	Sounder alert.Sounder
	// Vibrator provides the repeating vibration pattern. Optional.
	Vibrator alert.Vibrator
	// Missions supplies dismissal challenges. Optional; nil means the
	// static fallback mission is always used.
	Missions mission.Source
	// Remote mirrors alarm mutations to the remote store. Optional.
	Remote RemoteStore
	// Interval is the tick period. Defaults to DefaultInterval.
	Interval time.Duration
	// MissionTimeout bounds challenge generation. Defaults to the
	// question bank default.
	MissionTimeout time.Duration
	// RemoteTimeout bounds store pushes. Defaults to DefaultRemoteTimeout.
	RemoteTimeout time.Duration
}

// Engine orchestrates the scheduling and triggering cycle:
// it advances the scheduler, opens and closes alert sessions, drives the
// mission challenge and exposes engine-level operations to the UI surface.
type Engine struct {
	// mu is the single mutual-exclusion region covering registry view,
	// fire records, the active session and the pending queue. Both the
	// tick handler and the UI-facing operations take it, so a tick never
	// observes a half-written alarm and fire records see no lost updates.
	mu sync.Mutex

	registry *registry.Registry
	sched    *scheduler.Scheduler

	sounder  alert.Sounder
	vibrator alert.Vibrator
	missions mission.Source
	remote   RemoteStore

	interval       time.Duration
	missionTimeout time.Duration
	remoteTimeout  time.Duration

	// session is the single active alert, nil while idle.
	session *alert.Session
	// challenge is the mission gating the current session's dismissal.
	challenge mission.Challenge
	// pending queues matches that arrived while a session was open,
	// in arrival order. Alerts are handled sequentially: the next
	// session opens when the current one closes.
	pending []alarm.Alarm
}

// New creates an engine with the provided collaborators.
func New(opts *Options) *Engine {
	if opts == nil {
		opts = new(Options)
	}

	c := opts.Clock
	if c == nil {
		c = clock.System{}
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	missionTimeout := opts.MissionTimeout
	if missionTimeout <= 0 {
		missionTimeout = mission.DefaultBankTimeout
	}

	remoteTimeout := opts.RemoteTimeout
	if remoteTimeout <= 0 {
		remoteTimeout = DefaultRemoteTimeout
	}

	return &Engine{
		registry:       registry.New(),
		sched:          scheduler.New(c),
		sounder:        opts.Sounder,
		vibrator:       opts.Vibrator,
		missions:       opts.Missions,
		remote:         opts.Remote,
		interval:       interval,
		missionTimeout: missionTimeout,
		remoteTimeout:  remoteTimeout,
	}
}

// Run drives the tick loop until the context is canceled, then closes any
// open alert session before returning. The ticker has a fixed period with no
// wait-for-previous-tick dependency: a tick that overruns is logged and the
// overlapped firing is dropped rather than stacked.
func (e *Engine) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "engine")

	logger.InfoKV(ctx, "Alarm engine started", "interval", e.interval.String())

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	// Immediate pass so alarms due in the startup minute are not missed.
	e.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			e.Stop(ctx)
			logger.Info(ctx, "Alarm engine stopped")

			return nil
		case <-ticker.C:
			started := time.Now()
			e.tick(ctx)

			if elapsed := time.Since(started); elapsed > e.interval {
				metrics.IncTickDrop()
				logger.WarnKV(ctx, "Tick overran its period, overlapping tick dropped",
					"elapsed", elapsed.String(), "interval", e.interval.String())
			}
		}
	}
}

// Stop closes the open alert session, if any, and clears the pending queue.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		logger.InfoKV(ctx, "Closing alert session on shutdown", "alarm_id", e.session.Alarm().ID)
		e.session.Close()
		e.session = nil
		e.challenge = mission.Challenge{}
	}

	e.pending = nil
}

// tick runs one scheduler evaluation cycle and opens a session when a match
// surfaces while the engine is idle.
func (e *Engine) tick(ctx context.Context) {
	metrics.IncTick()

	e.mu.Lock()
	defer e.mu.Unlock()

	matches := e.sched.Tick(e.registry.List())
	metrics.AddMatches(len(matches))

	for _, m := range matches {
		logger.InfoKV(ctx, "Alarm matched", "alarm_id", m.Alarm.ID,
			"title", m.Alarm.Title, "at", m.At.String())
		e.pending = append(e.pending, m.Alarm)
	}

	e.startNextLocked(ctx)
}

// startNextLocked opens a session for the oldest pending match when idle.
// Caller must hold e.mu.
func (e *Engine) startNextLocked(ctx context.Context) {
	if e.session != nil || len(e.pending) == 0 {
		return
	}

	next := e.pending[0]
	e.pending = e.pending[1:]

	e.session = alert.Open(ctx, next, e.sounder, e.vibrator)

	genCtx, cancel := context.WithTimeout(ctx, e.missionTimeout)
	defer cancel()

	e.challenge = mission.Generate(genCtx, e.missions)

	logger.InfoKV(ctx, "Alerting", "alarm_id", next.ID, "title", next.Title,
		"sound", e.session.SoundActive(), "vibration", e.session.VibrationActive(),
		"question", e.challenge.Question)
}

// Status describes the engine's current alerting position for the UI.
type Status struct {
	// State is idle or alerting.
	State State `json:"state"`
	// Alarm is the record behind the open session, nil while idle.
	Alarm *alarm.Alarm `json:"alarm,omitempty"`
	// Question is the current mission question, empty while idle.
	Question string `json:"question,omitempty"`
	// Pending counts matches queued behind the open session.
	Pending int `json:"pending"`
}

// CurrentStatus returns the engine's alerting state.
func (e *Engine) CurrentStatus() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := Status{State: StateIdle, Pending: len(e.pending)}
	if e.session != nil {
		a := e.session.Alarm()
		status.State = StateAlerting
		status.Alarm = &a
		status.Question = e.challenge.Question
	}

	return status
}

// SubmitAnswer checks the user's answer against the current mission.
// A correct answer closes the session and reports true; an incorrect answer
// leaves the session alerting, by design, and reports false.
func (e *Engine) SubmitAnswer(ctx context.Context, answer string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return false, ErrNoActiveAlert
	}

	if !mission.Check(e.challenge, answer) {
		metrics.IncWrongAnswer()
		logger.InfoKV(ctx, "Wrong mission answer, alert continues",
			"alarm_id", e.session.Alarm().ID)

		return false, nil
	}

	e.closeSessionLocked(ctx, metrics.OutcomeDismissed)
	e.startNextLocked(ctx)

	return true, nil
}

// Cancel closes the current session without dismissal semantics.
func (e *Engine) Cancel(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoActiveAlert
	}

	e.closeSessionLocked(ctx, metrics.OutcomeCancelled)
	e.startNextLocked(ctx)

	return nil
}

// closeSessionLocked tears down the active session. Caller must hold e.mu.
func (e *Engine) closeSessionLocked(ctx context.Context, outcome string) {
	metrics.IncSession(outcome)
	logger.InfoKV(ctx, "Alert session closed",
		"alarm_id", e.session.Alarm().ID, "outcome", outcome)

	e.session.Close()
	e.session = nil
	e.challenge = mission.Challenge{}
}

// Alarms lists the registry in insertion order.
func (e *Engine) Alarms() []alarm.Alarm {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registry.List()
}

// CreateAlarm registers a new active alarm with a fresh id and mirrors the
// creation to the remote store.
func (e *Engine) CreateAlarm(ctx context.Context, t alarm.TimeOfDay, title string) (alarm.Alarm, error) {
	a := alarm.Alarm{
		ID:     uuid.NewString(),
		Time:   t,
		Title:  title,
		Active: true,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.registry.Upsert(a); err != nil {
		return alarm.Alarm{}, err
	}

	logger.InfoKV(ctx, "Alarm created", "alarm_id", a.ID, "time", a.Time.String(), "title", a.Title)
	e.pushRemote(ctx, "create", a, func(mctx context.Context) error {
		return e.remote.Create(mctx, a)
	})

	return a, nil
}

// UpdateAlarm edits an existing alarm's time and title in place.
func (e *Engine) UpdateAlarm(ctx context.Context, id string, t alarm.TimeOfDay, title string) (alarm.Alarm, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, ok := e.registry.Get(id)
	if !ok {
		return alarm.Alarm{}, ErrAlarmNotFound
	}

	current.Time = t
	current.Title = title

	if err := e.registry.Upsert(current); err != nil {
		return alarm.Alarm{}, err
	}

	logger.InfoKV(ctx, "Alarm updated", "alarm_id", id, "time", t.String(), "title", title)
	e.pushRemote(ctx, "update", current, func(mctx context.Context) error {
		return e.remote.Update(mctx, current)
	})

	return current, nil
}

// SetAlarmActive toggles scheduling for an alarm.
// Toggling inactive before the matching minute prevents that minute's match;
// toggling back before the minute arrives restores it.
func (e *Engine) SetAlarmActive(ctx context.Context, id string, active bool) (alarm.Alarm, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.registry.SetActive(id, active) {
		return alarm.Alarm{}, ErrAlarmNotFound
	}

	current, _ := e.registry.Get(id)

	logger.InfoKV(ctx, "Alarm toggled", "alarm_id", id, "active", active)
	e.pushRemote(ctx, "update", current, func(mctx context.Context) error {
		return e.remote.Update(mctx, current)
	})

	return current, nil
}

// DeleteAlarm removes an alarm and its fire record. Removing an alarm whose
// alert session is currently open does not disturb the session; it still
// closes normally on a correct answer.
func (e *Engine) DeleteAlarm(ctx context.Context, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry.Remove(id)
	e.sched.Forget(id)

	logger.InfoKV(ctx, "Alarm deleted", "alarm_id", id)
	e.pushRemote(ctx, "remove", alarm.Alarm{ID: id}, func(mctx context.Context) error {
		return e.remote.Remove(mctx, id)
	})
}

// Seed loads alarms fetched from the remote store into the registry without
// mirroring them back. Malformed records are skipped with a warning.
func (e *Engine) Seed(ctx context.Context, alarms []alarm.Alarm) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range alarms {
		if err := e.registry.Upsert(a); err != nil {
			logger.WarnKV(ctx, "Skipping malformed alarm from store", "alarm_id", a.ID, "error", err)
		}
	}

	logger.InfoKV(ctx, "Registry seeded from alarm store", "count", e.registry.Len())
}

// pushRemote mirrors one mutation to the remote store without blocking the
// engine lock on network latency. Failures are logged, never surfaced.
func (e *Engine) pushRemote(ctx context.Context, op string, a alarm.Alarm, push func(context.Context) error) {
	if e.remote == nil {
		return
	}

	go func() {
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.remoteTimeout)
		defer cancel()

		if err := push(mctx); err != nil {
			logger.WarnKV(mctx, "Alarm store push failed", "op", op, "alarm_id", a.ID, "error", err)
		}
	}()
}
