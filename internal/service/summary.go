package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"fitsync/internal/analysis"
	"fitsync/internal/withings"
	"fitsync/internal/workouts"
)

// AthleteSummary combines body, workout and profile data for a period.
type AthleteSummary struct {
	Days            int                        `json:"days"`
	Measurements    []withings.BodyMeasurement `json:"metrics"`
	Trends          map[string]analysis.Trend  `json:"metric_trends"`
	Workouts        []workouts.Workout         `json:"workouts"`
	Athlete         workouts.AthleteProfile    `json:"athlete_metrics"`
	TrainingLoad    []analysis.LoadPoint       `json:"training_load"`
	Form            analysis.LoadPoint         `json:"form"`
	FormDescription string                     `json:"form_description"`
}

// Summary builds athlete summaries.
type Summary struct {
	measurements *Measurements
	workouts     WorkoutRepository
}

func NewSummary(measurements MeasurementsFetcher, repo WorkoutRepository) *Summary {
	return &Summary{measurements: NewMeasurements(measurements), workouts: repo}
}

// Get loads measurements, workouts and the athlete profile concurrently.
// The first failure cancels the other reads and is returned.
func (s *Summary) Get(ctx context.Context, days int) (*AthleteSummary, error) {
	out := &AthleteSummary{Days: days}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Measurements, err = s.measurements.fetch(ctx, days)
		return err
	})
	g.Go(func() error {
		var err error
		out.Workouts, err = s.workouts.ListRecent(ctx, days)
		return err
	})
	g.Go(func() error {
		var err error
		out.Athlete, err = s.workouts.LatestAthleteProfile(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Trends = Trends(out.Measurements)
	out.TrainingLoad = analysis.TrainingLoad(dailyLoads(out.Workouts))
	if n := len(out.TrainingLoad); n > 0 {
		out.Form = out.TrainingLoad[n-1]
		out.FormDescription = analysis.FormDescription(out.Form.TSB)
	}
	return out, nil
}

// dailyLoads extracts TSS per workout, skipping workouts without a TSS or
// a usable date.
func dailyLoads(ws []workouts.Workout) []analysis.DailyLoad {
	var loads []analysis.DailyLoad
	for _, w := range ws {
		if w.TSS == nil || len(w.Date) < len(time.DateOnly) {
			continue
		}
		day, err := time.Parse(time.DateOnly, w.Date[:len(time.DateOnly)])
		if err != nil {
			continue
		}
		loads = append(loads, analysis.DailyLoad{Date: day, TSS: *w.TSS})
	}
	return loads
}
