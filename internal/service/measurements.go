package service

import (
	"context"
	"fmt"
	"sort"

	"fitsync/internal/analysis"
	"fitsync/internal/withings"
)

// MeasurementsFetcher retrieves body measurements for the last days days.
type MeasurementsFetcher interface {
	GetMeasurements(ctx context.Context, days int) ([]withings.BodyMeasurement, error)
}

// BodyMeasurementsResponse is a measurement series with its trends.
type BodyMeasurementsResponse struct {
	Measurements []withings.BodyMeasurement `json:"measurements"`
	Trends       map[string]analysis.Trend  `json:"trends"`
}

// Measurements serves body measurement queries.
type Measurements struct {
	client MeasurementsFetcher
}

func NewMeasurements(client MeasurementsFetcher) *Measurements {
	return &Measurements{client: client}
}

// List returns measurements enriched with 7-sample moving averages, oldest
// first, and per-metric linear trends.
func (m *Measurements) List(ctx context.Context, days int) (*BodyMeasurementsResponse, error) {
	measurements, err := m.fetch(ctx, days)
	if err != nil {
		return nil, err
	}
	return &BodyMeasurementsResponse{
		Measurements: measurements,
		Trends:       Trends(measurements),
	}, nil
}

func (m *Measurements) fetch(ctx context.Context, days int) ([]withings.BodyMeasurement, error) {
	measurements, err := m.client.GetMeasurements(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("fetching measurements: %w", err)
	}
	return WithMovingAverages(measurements), nil
}

// WithMovingAverages returns the measurements in time order with their
// moving average snapshots attached.
func WithMovingAverages(measurements []withings.BodyMeasurement) []withings.BodyMeasurement {
	sorted := make([]withings.BodyMeasurement, len(measurements))
	copy(sorted, measurements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MeasuredAt.Before(sorted[j].MeasuredAt)
	})

	samples := make([]analysis.Sample, len(sorted))
	for i, bm := range sorted {
		samples[i] = bm.Sample()
	}
	for i, avg := range analysis.MovingAverage(samples, nil, analysis.DefaultWindow) {
		sorted[i].MovingAverage7d = withings.AveragesFrom(avg.Averages)
	}
	return sorted
}

// Trends fits a line per tracked metric over the measurements.
func Trends(measurements []withings.BodyMeasurement) map[string]analysis.Trend {
	samples := make([]analysis.Sample, len(measurements))
	for i, bm := range measurements {
		samples[i] = bm.Sample()
	}
	return analysis.LinearRegression(samples, nil)
}
