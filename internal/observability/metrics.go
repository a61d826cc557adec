package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fitsync"

var (
	upstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "HTTP requests issued to upstream providers by provider and status code.",
	}, []string{"provider", "status"})

	tokenRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "token_refreshes_total",
		Help:      "Access token refreshes by provider and result.",
	}, []string{"provider", "result"})

	workoutsSaved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workouts",
		Name:      "saved_total",
		Help:      "Workout records written to the document store, by operation (create or update).",
	}, []string{"op"})

	recordsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workouts",
		Name:      "records_dropped_total",
		Help:      "Stored records skipped because their fields failed to parse.",
	}, []string{"collection"})

	webhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "Strava webhook deliveries by result.",
	}, []string{"result"})

	lastActivityProcessed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "last_activity_processed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted by the pipeline.",
	})
)

func init() {
	prometheus.MustRegister(
		upstreamRequests,
		tokenRefreshes,
		workoutsSaved,
		recordsDropped,
		webhookEvents,
		lastActivityProcessed,
	)
}

// RecordUpstreamRequest counts one upstream HTTP response. status 0 means
// the request never got a response.
func RecordUpstreamRequest(provider string, status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	upstreamRequests.WithLabelValues(provider, label).Inc()
}

// RecordTokenRefresh counts a refresh attempt.
func RecordTokenRefresh(provider string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	tokenRefreshes.WithLabelValues(provider, result).Inc()
}

// RecordWorkoutSaved counts a create or update.
func RecordWorkoutSaved(op string) {
	workoutsSaved.WithLabelValues(op).Inc()
}

// RecordDropped counts a record dropped during parsing.
func RecordDropped(collection string) {
	recordsDropped.WithLabelValues(collection).Inc()
}

// RecordWebhookEvent counts a webhook delivery outcome.
func RecordWebhookEvent(result string) {
	webhookEvents.WithLabelValues(result).Inc()
}

// RecordActivityProcessed updates the pipeline watermark.
func RecordActivityProcessed(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastActivityProcessed.Set(float64(ts.Unix()))
}

// TokenRefreshes exposes the refresh counter for tests.
func TokenRefreshes(provider, result string) prometheus.Counter {
	return tokenRefreshes.WithLabelValues(provider, result)
}

// WorkoutsSaved exposes the save counter for tests.
func WorkoutsSaved(op string) prometheus.Counter {
	return workoutsSaved.WithLabelValues(op)
}

// RecordsDropped exposes the drop counter for tests.
func RecordsDropped(collection string) prometheus.Counter {
	return recordsDropped.WithLabelValues(collection)
}

// WebhookEvents exposes the webhook counter for tests.
func WebhookEvents(result string) prometheus.Counter {
	return webhookEvents.WithLabelValues(result)
}
