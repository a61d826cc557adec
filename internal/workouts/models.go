// Package workouts maps workouts and athlete profiles onto document store
// databases.
package workouts

import (
	"time"

	"fitsync/internal/analysis"
)

// Workout is a workout as stored in the workout database.
type Workout struct {
	PageID               string   `json:"page_id,omitempty"`
	ExternalID           int64    `json:"id,omitempty"`
	Name                 string   `json:"name"`
	Date                 string   `json:"date"`
	DayOfWeek            string   `json:"day_of_week,omitempty"`
	DurationS            float64  `json:"duration_s"`
	DistanceM            float64  `json:"distance_m"`
	ElevationM           float64  `json:"elevation_m"`
	Type                 string   `json:"type"`
	AverageCadence       *float64 `json:"average_cadence"`
	AverageWatts         *float64 `json:"average_watts"`
	WeightedAverageWatts *float64 `json:"weighted_average_watts"`
	Kilojoules           *float64 `json:"kilojoules"`
	Kcal                 *float64 `json:"kcal"`
	AverageHeartrate     *float64 `json:"average_heartrate"`
	MaxHeartrate         *float64 `json:"max_heartrate"`
	HRDriftPercent       *float64 `json:"hr_drift_percent"`
	VO2MaxMinutes        *float64 `json:"vo2max_minutes"`
	TSS                  *float64 `json:"tss"`
	IntensityFactor      *float64 `json:"intensity_factor"`
	Notes                *string  `json:"notes"`
	Attachment           string   `json:"-"`
}

// WorkoutInput is everything Save writes for one workout.
type WorkoutInput struct {
	ExternalID int64
	Name       string
	StartDate  time.Time // zero means today
	Type       string
	DurationS  float64 // elapsed time
	DistanceM  float64
	ElevationM float64

	AverageCadence       *float64
	AverageWatts         *float64
	WeightedAverageWatts *float64
	Kilojoules           *float64
	Kcal                 *float64
	AverageHeartrate     *float64
	MaxHeartrate         *float64

	HRDriftPercent  float64
	VO2MaxMinutes   float64
	TSS             *float64
	IntensityFactor *float64

	Description string
	Attachment  string // compressed raw payload
}

// AthleteProfile holds the athlete's reference values. Nil means unknown.
type AthleteProfile struct {
	FTP       *float64 `json:"ftp"`
	WeightKg  *float64 `json:"weight"`
	MaxHR     *float64 `json:"max_hr"`
	RestingHR *float64 `json:"resting_hr"`
}

// Metrics returns the profile as metrics engine input.
func (p AthleteProfile) Metrics() analysis.Profile {
	return analysis.Profile{
		FTP:       p.FTP,
		MaxHR:     p.MaxHR,
		RestingHR: p.RestingHR,
	}
}

// SaveResult describes the outcome of an upsert.
type SaveResult struct {
	PageID  string
	Created bool
}
