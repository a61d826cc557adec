// Package api exposes the webhook receiver and the authenticated HTTP API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fitsync/internal/service"
	"fitsync/internal/workouts"
)

const defaultDays = 7

// ActivityProcessor ingests a single activity.
type ActivityProcessor interface {
	ProcessActivity(ctx context.Context, id int64) (*service.ProcessResult, error)
}

// MeasurementsLister lists body measurements.
type MeasurementsLister interface {
	List(ctx context.Context, days int) (*service.BodyMeasurementsResponse, error)
}

// WorkoutLog lists, completes and records workouts.
type WorkoutLog interface {
	List(ctx context.Context, days int) ([]workouts.Workout, error)
	Fill(ctx context.Context, pageID string) (*workouts.Workout, error)
	CreateManual(ctx context.Context, m service.ManualWorkout) (*service.ManualWorkoutResponse, error)
}

// SummaryProvider builds athlete summaries.
type SummaryProvider interface {
	Get(ctx context.Context, days int) (*service.AthleteSummary, error)
}

// Config holds the secrets the handlers check requests against.
type Config struct {
	APIKey        string
	WebhookSecret string // Strava client secret
	VerifyToken   string // Strava subscription verify token
}

// Services bundles the operations behind the routes.
type Services struct {
	Activities   ActivityProcessor
	Measurements MeasurementsLister
	Workouts     WorkoutLog
	Summary      SummaryProvider
}

// Handler coordinates HTTP requests with the services.
type Handler struct {
	cfg    Config
	svc    Services
	logger *slog.Logger
}

// NewHandler builds a Handler.
func NewHandler(cfg Config, svc Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{cfg: cfg, svc: svc, logger: logger}
}

// Routes returns the full route table. The webhook, health and metrics
// endpoints are public; everything else requires the API key.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /strava-webhook", h.verifySubscription)
	mux.HandleFunc("POST /strava-webhook", h.stravaEvent)

	protect := func(fn http.HandlerFunc) http.Handler {
		return requireAPIKey(h.cfg.APIKey, fn)
	}
	mux.Handle("POST /strava-activity/{id}", protect(h.processActivity))
	mux.Handle("GET /body-measurements", protect(h.bodyMeasurements))
	mux.Handle("GET /workout-logs", protect(h.listWorkouts))
	mux.Handle("POST /workout-logs/manual", protect(h.createManualWorkout))
	mux.Handle("POST /workout-logs/{page_id}/fill", protect(h.fillWorkout))
	mux.Handle("GET /athlete-summary", protect(h.athleteSummary))

	return logRequests(h.logger, mux)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) processActivity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "activity id must be a positive integer")
		return
	}

	res, err := h.svc.Activities.ProcessActivity(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", ID: res.ActivityID, PageID: res.PageID})
}

func (h *Handler) bodyMeasurements(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Measurements.List(r.Context(), days)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Workouts.List(r.Context(), days)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []workouts.Workout{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) fillWorkout(w http.ResponseWriter, r *http.Request) {
	workout, err := h.svc.Workouts.Fill(r.Context(), r.PathValue("page_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (h *Handler) createManualWorkout(w http.ResponseWriter, r *http.Request) {
	var req service.ManualWorkout
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	res, err := h.svc.Workouts.CreateManual(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) athleteSummary(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Summary.Get(r.Context(), days)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// parseDays reads the days query parameter, defaulting to a week.
func parseDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "days must be a positive integer")
		return 0, false
	}
	return days, true
}

// StatusResponse acknowledges a command.
type StatusResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id,omitempty"`
	PageID string `json:"page_id,omitempty"`
}
