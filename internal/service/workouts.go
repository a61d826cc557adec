package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fitsync/internal/analysis"
	"fitsync/internal/workouts"
)

var (
	ErrMissingName      = errors.New("name is required")
	ErrMissingStartTime = errors.New("start_time is required")
	ErrInvalidDuration  = errors.New("duration_s must be positive")
)

// ManualWorkout is a workout logged by hand rather than ingested.
type ManualWorkout struct {
	Name             string    `json:"name"`
	StartTime        time.Time `json:"start_time"`
	DurationS        float64   `json:"duration_s"`
	DistanceM        float64   `json:"distance_m"`
	ElevationM       float64   `json:"elevation_m"`
	Type             string    `json:"type"`
	AverageHeartrate *float64  `json:"average_heartrate"`
	MaxHeartrate     *float64  `json:"max_heartrate"`
	Calories         *float64  `json:"calories"`
	TSS              *float64  `json:"tss"`
	IntensityFactor  *float64  `json:"intensity_factor"`
	HRDriftPercent   *float64  `json:"hr_drift_percent"`
	VO2MaxMinutes    *float64  `json:"vo2max_minutes"`
	Notes            string    `json:"notes"`
}

// Validate checks the required fields.
func (m ManualWorkout) Validate() error {
	switch {
	case m.Name == "":
		return ErrMissingName
	case m.StartTime.IsZero():
		return ErrMissingStartTime
	case m.DurationS <= 0:
		return ErrInvalidDuration
	}
	return nil
}

// ExternalID is the synthetic id for a manual workout: its start time in
// unix seconds.
func (m ManualWorkout) ExternalID() int64 {
	return m.StartTime.Unix()
}

// ManualWorkoutResponse reports a stored manual workout.
type ManualWorkoutResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	StartTime       time.Time `json:"start_time"`
	DurationS       float64   `json:"duration_s"`
	IntensityFactor *float64  `json:"intensity_factor"`
	TSS             *float64  `json:"tss"`
}

// Workouts serves workout log queries and manual entries.
type Workouts struct {
	repo   WorkoutRepository
	logger *slog.Logger
}

func NewWorkouts(repo WorkoutRepository, logger *slog.Logger) *Workouts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workouts{repo: repo, logger: logger}
}

// List returns workouts logged within the last days days.
func (w *Workouts) List(ctx context.Context, days int) ([]workouts.Workout, error) {
	return w.repo.ListRecent(ctx, days)
}

// Fill completes the derived metrics of a stored workout.
func (w *Workouts) Fill(ctx context.Context, pageID string) (*workouts.Workout, error) {
	return w.repo.FillMissingMetrics(ctx, pageID)
}

// CreateManual stores a manual workout. IF and TSS that were not supplied
// are estimated from heart rate against the latest athlete profile.
func (w *Workouts) CreateManual(ctx context.Context, m ManualWorkout) (*ManualWorkoutResponse, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	intensity, tss := m.IntensityFactor, m.TSS
	if intensity == nil || tss == nil {
		profile, err := w.repo.LatestAthleteProfile(ctx)
		if err != nil {
			return nil, err
		}
		est, ok := analysis.EstimateFromHR(analysis.HRInput{
			AverageHR:   m.AverageHeartrate,
			MaxHR:       m.MaxHeartrate,
			DurationS:   &m.DurationS,
			AthleteMax:  profile.MaxHR,
			AthleteRest: profile.RestingHR,
			Kcal:        m.Calories,
		})
		if ok {
			if intensity == nil {
				intensity = &est.IF
			}
			if tss == nil {
				tss = &est.TSS
			}
		}
	}

	in := workouts.WorkoutInput{
		ExternalID:       m.ExternalID(),
		Name:             m.Name,
		StartDate:        m.StartTime,
		Type:             m.Type,
		DurationS:        m.DurationS,
		DistanceM:        m.DistanceM,
		ElevationM:       m.ElevationM,
		Kcal:             m.Calories,
		AverageHeartrate: m.AverageHeartrate,
		MaxHeartrate:     m.MaxHeartrate,
		HRDriftPercent:   valueOrZero(m.HRDriftPercent),
		VO2MaxMinutes:    valueOrZero(m.VO2MaxMinutes),
		TSS:              tss,
		IntensityFactor:  intensity,
		Description:      m.Notes,
	}
	if _, err := w.repo.Save(ctx, in); err != nil {
		return nil, err
	}
	w.logger.Info("manual workout stored", "id", in.ExternalID, "name", m.Name)

	return &ManualWorkoutResponse{
		ID:              in.ExternalID,
		Name:            m.Name,
		StartTime:       m.StartTime,
		DurationS:       m.DurationS,
		IntensityFactor: intensity,
		TSS:             tss,
	}, nil
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
