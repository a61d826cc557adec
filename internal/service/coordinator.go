// Package service composes the provider clients, the metrics engine and the
// workout store into the operations exposed by the API and the CLI.
package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"fitsync/internal/analysis"
	"fitsync/internal/errs"
	"fitsync/internal/observability"
	"fitsync/internal/strava"
	"fitsync/internal/workouts"
)

// ActivityFetcher retrieves a single activity.
type ActivityFetcher interface {
	GetActivity(ctx context.Context, id int64) (*strava.Activity, error)
}

// WorkoutRepository is the subset of the workout store used by the services.
type WorkoutRepository interface {
	Save(ctx context.Context, in workouts.WorkoutInput) (*workouts.SaveResult, error)
	LatestAthleteProfile(ctx context.Context) (workouts.AthleteProfile, error)
	ListRecent(ctx context.Context, days int) ([]workouts.Workout, error)
	FillMissingMetrics(ctx context.Context, pageID string) (*workouts.Workout, error)
}

// Coordinator ingests activities: fetch, enrich with the athlete profile,
// compute metrics, compress the payload and persist.
type Coordinator struct {
	activities ActivityFetcher
	workouts   WorkoutRepository
	logger     *slog.Logger
}

// NewCoordinator creates a coordinator.
func NewCoordinator(activities ActivityFetcher, repo WorkoutRepository, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{activities: activities, workouts: repo, logger: logger}
}

// ProcessResult summarises one ingested activity.
type ProcessResult struct {
	ActivityID int64                    `json:"id"`
	PageID     string                   `json:"page_id"`
	Created    bool                     `json:"created"`
	Metrics    analysis.ActivityMetrics `json:"-"`
}

// ProcessActivity ingests one activity. Steps after a successful fetch are
// not rolled back when a later step fails.
func (c *Coordinator) ProcessActivity(ctx context.Context, id int64) (*ProcessResult, error) {
	log := c.logger.With("activity_id", id)

	activity, err := c.activities.GetActivity(ctx, id)
	if err != nil {
		if errs.Fatal(err) {
			log.Error("activity fetch failed: auth failure", "error", err)
		}
		return nil, fmt.Errorf("fetching activity %d: %w", id, err)
	}

	profile, err := c.workouts.LatestAthleteProfile(ctx)
	if err != nil {
		return nil, err
	}

	metrics := analysis.ComputeActivityMetrics(activity.MetricsInput(), profile.Metrics())

	attachment, err := compressPayload(activity.Raw)
	if err != nil {
		return nil, fmt.Errorf("compressing activity %d: %w", id, err)
	}

	saved, err := c.workouts.Save(ctx, workoutFromActivity(activity, metrics, attachment))
	if err != nil {
		return nil, err
	}

	observability.RecordActivityProcessed(time.Now())
	log.Info("activity processed",
		"page_id", saved.PageID,
		"created", saved.Created,
		"hr_drift", metrics.HRDrift,
		"vo2max_minutes", metrics.VO2MaxMinutes,
	)

	return &ProcessResult{
		ActivityID: id,
		PageID:     saved.PageID,
		Created:    saved.Created,
		Metrics:    metrics,
	}, nil
}

func workoutFromActivity(a *strava.Activity, m analysis.ActivityMetrics, attachment string) workouts.WorkoutInput {
	return workouts.WorkoutInput{
		ExternalID:           a.ID,
		Name:                 a.Name,
		StartDate:            a.StartDate,
		Type:                 a.Type,
		DurationS:            float64(a.ElapsedTime),
		DistanceM:            a.Distance,
		ElevationM:           a.TotalElevationGain,
		AverageCadence:       a.AverageCadence,
		AverageWatts:         a.AverageWatts,
		WeightedAverageWatts: a.WeightedAverageWatts,
		Kilojoules:           a.Kilojoules,
		Kcal:                 a.Calories,
		AverageHeartrate:     a.AverageHeartrate,
		MaxHeartrate:         a.MaxHeartrate,
		HRDriftPercent:       m.HRDrift,
		VO2MaxMinutes:        m.VO2MaxMinutes,
		TSS:                  m.TSS,
		IntensityFactor:      m.IntensityFactor,
		Description:          a.Description,
		Attachment:           attachment,
	}
}

// compressPayload minifies the raw JSON, gzips it and encodes it as base64.
func compressPayload(raw []byte) (string, error) {
	var compact bytes.Buffer
	if len(raw) > 0 {
		if err := json.Compact(&compact, raw); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(compact.Bytes()); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecompressPayload reverses compressPayload.
func DecompressPayload(attachment string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(attachment)
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(zr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
