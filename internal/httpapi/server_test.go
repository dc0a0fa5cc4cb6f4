package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/appzem/alarm-engine/internal/domain/alarm"
	"github.com/appzem/alarm-engine/internal/engine"
)

// stubEngine records calls and returns canned responses.
type stubEngine struct {
	alarms  []alarm.Alarm
	status  engine.Status
	correct bool

	deleted   []string
	cancelled int
}

func (s *stubEngine) Alarms() []alarm.Alarm { return s.alarms }

func (s *stubEngine) CreateAlarm(_ context.Context, t alarm.TimeOfDay, title string) (alarm.Alarm, error) {
	a := alarm.Alarm{ID: "new-id", Time: t, Title: title, Active: true}
	s.alarms = append(s.alarms, a)

	return a, nil
}

func (s *stubEngine) UpdateAlarm(_ context.Context, id string, t alarm.TimeOfDay, title string) (alarm.Alarm, error) {
	if id != "a-1" {
		return alarm.Alarm{}, engine.ErrAlarmNotFound
	}

	return alarm.Alarm{ID: id, Time: t, Title: title, Active: true}, nil
}

func (s *stubEngine) SetAlarmActive(_ context.Context, id string, active bool) (alarm.Alarm, error) {
	if id != "a-1" {
		return alarm.Alarm{}, engine.ErrAlarmNotFound
	}

	return alarm.Alarm{ID: id, Time: alarm.TimeOfDay{Hour: 7, Minute: 30}, Title: "wake", Active: active}, nil
}

func (s *stubEngine) DeleteAlarm(_ context.Context, id string) {
	s.deleted = append(s.deleted, id)
}

func (s *stubEngine) CurrentStatus() engine.Status { return s.status }

func (s *stubEngine) SubmitAnswer(context.Context, string) (bool, error) {
	if s.status.State != engine.StateAlerting {
		return false, engine.ErrNoActiveAlert
	}

	return s.correct, nil
}

func (s *stubEngine) Cancel(context.Context) error {
	if s.status.State != engine.StateAlerting {
		return engine.ErrNoActiveAlert
	}

	s.cancelled++

	return nil
}

func newTestServer(e Engine) *httptest.Server {
	return httptest.NewServer(NewServer(e).Router())
}

// TestListAlarms returns wire-formatted records in registry order.
func TestListAlarms(t *testing.T) {
	t.Parallel()

	stub := &stubEngine{alarms: []alarm.Alarm{
		{ID: "a-1", Time: alarm.TimeOfDay{Hour: 7, Minute: 30}, Title: "wake", Active: true},
		{ID: "a-2", Time: alarm.TimeOfDay{Hour: 8, Minute: 0}, Title: "gym", Active: false},
	}}

	server := newTestServer(stub)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/alarms")
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []alarmView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 2)
	require.Equal(t, "07:30:00", views[0].Time)
	require.Equal(t, "a-2", views[1].ID)
}

// TestCreateAlarm validates payloads and the created response.
func TestCreateAlarm(t *testing.T) {
	t.Parallel()

	server := newTestServer(new(stubEngine))
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/alarms", "application/json",
		bytes.NewBufferString(`{"time":"07:30:00","title":"wake up"}`))
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view alarmView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Equal(t, "new-id", view.ID)
	require.True(t, view.Active)

	// Out-of-range time is rejected before reaching the engine.
	resp, err = http.Post(server.URL+"/api/alarms", "application/json",
		bytes.NewBufferString(`{"time":"25:00","title":"bad"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing title.
	resp, err = http.Post(server.URL+"/api/alarms", "application/json",
		bytes.NewBufferString(`{"time":"07:30"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestUpdateUnknownAlarm maps ErrAlarmNotFound to 404.
func TestUpdateUnknownAlarm(t *testing.T) {
	t.Parallel()

	server := newTestServer(new(stubEngine))
	defer server.Close()

	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/alarms/missing",
		bytes.NewBufferString(`{"time":"07:30","title":"x"}`))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestDeleteAlarm always succeeds with 204.
func TestDeleteAlarm(t *testing.T) {
	t.Parallel()

	stub := new(stubEngine)
	server := newTestServer(stub)
	defer server.Close()

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/alarms/a-9", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, []string{"a-9"}, stub.deleted)
}

// TestAlertAnswerFlow covers status, dismissal and the idle conflict.
func TestAlertAnswerFlow(t *testing.T) {
	t.Parallel()

	alerting := alarm.Alarm{ID: "a-1", Time: alarm.TimeOfDay{Hour: 7, Minute: 30}, Title: "wake", Active: true}
	stub := &stubEngine{
		status: engine.Status{
			State:    engine.StateAlerting,
			Alarm:    &alerting,
			Question: "2+2",
		},
		correct: true,
	}

	server := newTestServer(stub)
	defer server.Close()

	// Status while alerting.
	resp, err := http.Get(server.URL + "/api/alert")
	require.NoError(t, err)

	var status engine.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	_ = resp.Body.Close()
	require.Equal(t, engine.StateAlerting, status.State)
	require.Equal(t, "2+2", status.Question)

	// Correct answer dismisses.
	resp, err = http.Post(server.URL+"/api/alert/answer", "application/json",
		bytes.NewBufferString(`{"answer":"4"}`))
	require.NoError(t, err)

	var result map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	_ = resp.Body.Close()
	require.True(t, result["dismissed"])

	// Answering while idle conflicts.
	stub.status = engine.Status{State: engine.StateIdle}
	resp, err = http.Post(server.URL+"/api/alert/answer", "application/json",
		bytes.NewBufferString(`{"answer":"4"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

// TestHealthz responds ok.
func TestHealthz(t *testing.T) {
	t.Parallel()

	server := newTestServer(new(stubEngine))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
