package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/appzem/alarm-engine/internal/domain/alarm"
	"github.com/appzem/alarm-engine/internal/engine"
	"github.com/appzem/alarm-engine/internal/logger"
)

// Engine is the subset of engine operations the HTTP surface exposes.
type Engine interface {
	Alarms() []alarm.Alarm
	CreateAlarm(ctx context.Context, t alarm.TimeOfDay, title string) (alarm.Alarm, error)
	UpdateAlarm(ctx context.Context, id string, t alarm.TimeOfDay, title string) (alarm.Alarm, error)
	SetAlarmActive(ctx context.Context, id string, active bool) (alarm.Alarm, error)
	DeleteAlarm(ctx context.Context, id string)
	CurrentStatus() engine.Status
	SubmitAnswer(ctx context.Context, answer string) (bool, error)
	Cancel(ctx context.Context) error
}

// Server exposes the engine to the surrounding UI over HTTP.
type Server struct {
	// engine handles all alarm and alert operations.
	engine Engine
}

// NewServer wires the engine into an HTTP handler set.
func NewServer(e Engine) *Server {
	return &Server{engine: e}
}

// Router assembles the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	// The mobile UI is served from a different origin.
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/alarms", s.handleListAlarms)
		r.Post("/alarms", s.handleCreateAlarm)
		r.Put("/alarms/{id}", s.handleUpdateAlarm)
		r.Patch("/alarms/{id}/active", s.handleToggleAlarm)
		r.Delete("/alarms/{id}", s.handleDeleteAlarm)

		r.Get("/alert", s.handleAlertStatus)
		r.Post("/alert/answer", s.handleAnswer)
		r.Post("/alert/cancel", s.handleCancel)
	})

	return r
}

// alarmView is the JSON representation of an alarm, with the time in the
// same "HH:MM:SS" shape the UI already speaks.
type alarmView struct {
	ID     string `json:"id"`
	Time   string `json:"time"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

func toView(a alarm.Alarm) alarmView {
	return alarmView{ID: a.ID, Time: a.Time.Wire(), Title: a.Title, Active: a.Active}
}

type alarmPayload struct {
	Time  string `json:"time"`
	Title string `json:"title"`
}

func (s *Server) handleListAlarms(w http.ResponseWriter, _ *http.Request) {
	alarms := s.engine.Alarms()

	views := make([]alarmView, 0, len(alarms))
	for _, a := range alarms {
		views = append(views, toView(a))
	}

	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateAlarm(w http.ResponseWriter, r *http.Request) {
	var p alarmPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Title == "" {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	t, err := alarm.ParseTimeOfDay(p.Time)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := s.engine.CreateAlarm(r.Context(), t, p.Title)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toView(created))
}

func (s *Server) handleUpdateAlarm(w http.ResponseWriter, r *http.Request) {
	var p alarmPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	t, err := alarm.ParseTimeOfDay(p.Time)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := s.engine.UpdateAlarm(r.Context(), chi.URLParam(r, "id"), t, p.Title)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toView(updated))
}

func (s *Server) handleToggleAlarm(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Active bool `json:"active"`
	}

	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	toggled, err := s.engine.SetAlarmActive(r.Context(), chi.URLParam(r, "id"), p.Active)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toView(toggled))
}

func (s *Server) handleDeleteAlarm(w http.ResponseWriter, r *http.Request) {
	s.engine.DeleteAlarm(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAlertStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.CurrentStatus())
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Answer string `json:"answer"`
	}

	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	dismissed, err := s.engine.SubmitAnswer(r.Context(), p.Answer)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"dismissed": dismissed})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Cancel(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeEngineError maps engine sentinels onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrAlarmNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrNoActiveAlert):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, alarm.ErrInvalidAlarm):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WarnKV(context.Background(), "Failed to encode response", "error", err)
	}
}
