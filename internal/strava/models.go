package strava

import (
	"encoding/json"
	"time"

	"fitsync/internal/analysis"
)

// Activity is a detailed Strava activity (GET /activities/{id}).
type Activity struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	SportType            string    `json:"sport_type"`
	StartDate            time.Time `json:"start_date"`
	StartDateLocal       time.Time `json:"start_date_local"`
	Distance             float64   `json:"distance"`             // meters
	MovingTime           int       `json:"moving_time"`          // seconds
	ElapsedTime          int       `json:"elapsed_time"`         // seconds
	TotalElevationGain   float64   `json:"total_elevation_gain"` // meters
	AverageHeartrate     *float64  `json:"average_heartrate"`    // bpm
	MaxHeartrate         *float64  `json:"max_heartrate"`        // bpm
	AverageCadence       *float64  `json:"average_cadence"`      // rpm or spm
	AverageWatts         *float64  `json:"average_watts"`
	WeightedAverageWatts *float64  `json:"weighted_average_watts"`
	Kilojoules           *float64  `json:"kilojoules"`
	Calories             *float64  `json:"calories"`
	Description          string    `json:"description"`
	SplitsMetric         []Split   `json:"splits_metric"`
	Laps                 []Split   `json:"laps"`

	// Raw is the response body exactly as received.
	Raw json.RawMessage `json:"-"`
}

// Split is a per-kilometre split or a lap. Splits carry no max heart rate.
type Split struct {
	Distance         float64  `json:"distance"`
	MovingTime       int      `json:"moving_time"`
	ElapsedTime      int      `json:"elapsed_time"`
	AverageSpeed     float64  `json:"average_speed"`
	AverageHeartrate *float64 `json:"average_heartrate"`
	MaxHeartrate     *float64 `json:"max_heartrate"`
}

// MetricsInput converts the activity into the metrics engine's input.
func (a *Activity) MetricsInput() analysis.ActivityInput {
	return analysis.ActivityInput{
		Splits:               toAnalysisSplits(a.SplitsMetric),
		Laps:                 toAnalysisSplits(a.Laps),
		MovingTime:           float64(a.MovingTime),
		WeightedAverageWatts: a.WeightedAverageWatts,
		AverageHeartrate:     a.AverageHeartrate,
		MaxHeartrate:         a.MaxHeartrate,
	}
}

func toAnalysisSplits(splits []Split) []analysis.Split {
	out := make([]analysis.Split, len(splits))
	for i, s := range splits {
		out[i] = analysis.Split{
			MovingTime:       float64(s.MovingTime),
			AverageHeartrate: s.AverageHeartrate,
			MaxHeartrate:     s.MaxHeartrate,
		}
	}
	return out
}

// Webhook event types
const (
	ObjectTypeActivity = "activity"
	ObjectTypeAthlete  = "athlete"

	AspectCreate = "create"
	AspectUpdate = "update"
	AspectDelete = "delete"
)

// WebhookEvent is a push subscription event.
type WebhookEvent struct {
	ObjectType     string            `json:"object_type"`
	ObjectID       int64             `json:"object_id"`
	AspectType     string            `json:"aspect_type"`
	OwnerID        int64             `json:"owner_id"`
	SubscriptionID int64             `json:"subscription_id"`
	EventTime      int64             `json:"event_time"`
	Updates        map[string]string `json:"updates"`
}

// Ingestible reports whether the event should trigger an activity import.
func (e WebhookEvent) Ingestible() bool {
	return e.ObjectType == ObjectTypeActivity &&
		(e.AspectType == AspectCreate || e.AspectType == AspectUpdate)
}
