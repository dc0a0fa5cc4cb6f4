package engine

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/appzem/alarm-engine/internal/clock"
	"github.com/appzem/alarm-engine/internal/domain/alarm"
	"github.com/appzem/alarm-engine/internal/metrics"
	"github.com/appzem/alarm-engine/internal/mission"
)

// manualClock is set explicitly by each test step.
type manualClock struct {
	mu  sync.Mutex
	now alarm.TimeOfDay
}

func (c *manualClock) Now() alarm.TimeOfDay {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *manualClock) Set(t alarm.TimeOfDay) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

// countingSounder records lifecycle calls; optionally fails to start.
type countingSounder struct {
	fail   bool
	starts int
	stops  int
}

func (s *countingSounder) Start(context.Context) error {
	if s.fail {
		return errors.New("no audio device")
	}

	s.starts++

	return nil
}

func (s *countingSounder) Stop() { s.stops++ }

// staticMissions always serves the same challenge.
type staticMissions struct {
	challenge mission.Challenge
}

func (m staticMissions) Random(context.Context) (mission.Challenge, error) {
	return m.challenge, nil
}

func at(hour, minute int) alarm.TimeOfDay {
	return alarm.TimeOfDay{Hour: hour, Minute: minute}
}

func newTestEngine(c clock.Clock, snd *countingSounder) *Engine {
	return New(&Options{
		Clock:    c,
		Sounder:  snd,
		Missions: staticMissions{challenge: mission.Challenge{Question: "2+2", Answer: "4"}},
		Interval: 10 * time.Millisecond,
	})
}

// TestFireDismissCycle walks one full cycle: idle, match at 07:30, alerting,
// wrong answer keeps alerting, correct answer dismisses, no re-fire within
// the same minute.
func TestFireDismissCycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := &manualClock{now: at(7, 29)}
	snd := new(countingSounder)
	e := newTestEngine(c, snd)

	_, err := e.CreateAlarm(ctx, at(7, 30), "wake up")
	require.NoError(t, err)

	e.tick(ctx)
	require.Equal(t, StateIdle, e.CurrentStatus().State)

	c.Set(at(7, 30))
	e.tick(ctx)

	status := e.CurrentStatus()
	require.Equal(t, StateAlerting, status.State)
	require.Equal(t, "wake up", status.Alarm.Title)
	require.Equal(t, "2+2", status.Question)
	require.Equal(t, 1, snd.starts)

	// Wrong answer: session survives.
	ok, err := e.SubmitAnswer(ctx, "5")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, StateAlerting, e.CurrentStatus().State)
	require.Zero(t, snd.stops)

	// Whitespace-padded correct answer dismisses.
	ok, err = e.SubmitAnswer(ctx, " 4 ")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StateIdle, e.CurrentStatus().State)
	require.Equal(t, 1, snd.stops)

	// Same minute: fire record blocks a second match.
	e.tick(ctx)
	require.Equal(t, StateIdle, e.CurrentStatus().State)

	// Next occurrence of the minute matches again.
	c.Set(at(7, 31))
	e.tick(ctx)
	c.Set(at(7, 30))
	e.tick(ctx)
	require.Equal(t, StateAlerting, e.CurrentStatus().State)
}

// TestSimultaneousAlarmsQueueSequentially: two alarms due the same minute
// alert one at a time, in registry order.
func TestSimultaneousAlarmsQueueSequentially(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := &manualClock{now: at(7, 30)}
	snd := new(countingSounder)
	e := newTestEngine(c, snd)

	first, err := e.CreateAlarm(ctx, at(7, 30), "first")
	require.NoError(t, err)

	second, err := e.CreateAlarm(ctx, at(7, 30), "second")
	require.NoError(t, err)

	e.tick(ctx)

	status := e.CurrentStatus()
	require.Equal(t, StateAlerting, status.State)
	require.Equal(t, first.ID, status.Alarm.ID)
	require.Equal(t, 1, status.Pending)

	// Dismissing the first immediately opens the second.
	ok, err := e.SubmitAnswer(ctx, "4")
	require.NoError(t, err)
	require.True(t, ok)

	status = e.CurrentStatus()
	require.Equal(t, StateAlerting, status.State)
	require.Equal(t, second.ID, status.Alarm.ID)
	require.Zero(t, status.Pending)

	require.NoError(t, e.Cancel(ctx))
	require.Equal(t, StateIdle, e.CurrentStatus().State)
	require.Equal(t, 2, snd.stops)
}

// TestToggleControlsMatching: an alarm toggled inactive before its minute
// does not match; toggled back, it does.
func TestToggleControlsMatching(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := &manualClock{now: at(6, 0)}
	e := newTestEngine(c, new(countingSounder))

	a, err := e.CreateAlarm(ctx, at(6, 0), "early")
	require.NoError(t, err)

	_, err = e.SetAlarmActive(ctx, a.ID, false)
	require.NoError(t, err)

	e.tick(ctx)
	require.Equal(t, StateIdle, e.CurrentStatus().State)

	_, err = e.SetAlarmActive(ctx, a.ID, true)
	require.NoError(t, err)

	e.tick(ctx)
	require.Equal(t, StateAlerting, e.CurrentStatus().State)
}

// TestDeleteDuringAlerting: removing the alarm behind an open session does
// not crash it; the session still closes normally on a correct answer.
func TestDeleteDuringAlerting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := &manualClock{now: at(7, 30)}
	snd := new(countingSounder)
	e := newTestEngine(c, snd)

	a, err := e.CreateAlarm(ctx, at(7, 30), "doomed")
	require.NoError(t, err)

	e.tick(ctx)
	require.Equal(t, StateAlerting, e.CurrentStatus().State)

	e.DeleteAlarm(ctx, a.ID)
	require.Empty(t, e.Alarms())
	require.Equal(t, StateAlerting, e.CurrentStatus().State)

	ok, err := e.SubmitAnswer(ctx, "4")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, snd.stops)
}

// TestDegradedAlertStillDismissible: with a failing sounder the session is
// vibration-only yet behaves normally.
func TestDegradedAlertStillDismissible(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := &manualClock{now: at(7, 30)}
	e := New(&Options{
		Clock:    c,
		Sounder:  &countingSounder{fail: true},
		Vibrator: nil,
		Missions: staticMissions{challenge: mission.Challenge{Question: "2+2", Answer: "4"}},
	})

	_, err := e.CreateAlarm(ctx, at(7, 30), "quiet")
	require.NoError(t, err)

	e.tick(ctx)
	require.Equal(t, StateAlerting, e.CurrentStatus().State)

	ok, err := e.SubmitAnswer(ctx, "4")
	require.NoError(t, err)
	require.True(t, ok)
}

// TestAnswerWhileIdle returns ErrNoActiveAlert for answer and cancel.
func TestAnswerWhileIdle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newTestEngine(&manualClock{now: at(12, 0)}, new(countingSounder))

	_, err := e.SubmitAnswer(ctx, "4")
	require.ErrorIs(t, err, ErrNoActiveAlert)
	require.ErrorIs(t, e.Cancel(ctx), ErrNoActiveAlert)
}

// TestCreateRejectsMalformedTime keeps the registry unchanged on bad input.
func TestCreateRejectsMalformedTime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newTestEngine(&manualClock{now: at(12, 0)}, new(countingSounder))

	_, err := e.CreateAlarm(ctx, alarm.TimeOfDay{Hour: 24, Minute: 0}, "bad")
	require.ErrorIs(t, err, alarm.ErrInvalidAlarm)
	require.Empty(t, e.Alarms())
}

// TestRunStopsAndClosesSession drives the real loop briefly and verifies the
// open session is released on shutdown.
func TestRunStopsAndClosesSession(t *testing.T) {
	t.Parallel()

	c := &manualClock{now: at(7, 30)}
	snd := new(countingSounder)
	e := newTestEngine(c, snd)

	_, err := e.CreateAlarm(context.Background(), at(7, 30), "wake up")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = e.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return e.CurrentStatus().State == StateAlerting
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	require.Equal(t, StateIdle, e.CurrentStatus().State)
	require.Equal(t, 1, snd.stops)
}

// TestSeedSkipsMalformedRecords loads valid store records and drops bad ones.
func TestSeedSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := newTestEngine(&manualClock{now: at(12, 0)}, new(countingSounder))

	e.Seed(ctx, []alarm.Alarm{
		{ID: "good", Time: at(7, 30), Title: "ok", Active: true},
		{ID: "bad", Time: alarm.TimeOfDay{Hour: 99}, Title: "broken", Active: true},
	})

	alarms := e.Alarms()
	require.Len(t, alarms, 1)
	require.Equal(t, "good", alarms[0].ID)
}

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}
