package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/analysis"
	"fitsync/internal/withings"
)

type fakeMeasurements struct {
	measurements []withings.BodyMeasurement
	err          error
	days         int
}

func (f *fakeMeasurements) GetMeasurements(_ context.Context, days int) ([]withings.BodyMeasurement, error) {
	f.days = days
	return f.measurements, f.err
}

var day0 = time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)

func weighIn(day int, weight float64) withings.BodyMeasurement {
	return withings.BodyMeasurement{
		MeasuredAt:     day0.AddDate(0, 0, day),
		WeightKg:       weight,
		FatMassKg:      14,
		MuscleMassKg:   52,
		BoneMassKg:     3,
		HydrationKg:    38,
		FatFreeMassKg:  weight - 14,
		BodyFatPercent: 14 / weight * 100,
		DeviceName:     withings.DefaultDevice,
	}
}

func TestMeasurementsList(t *testing.T) {
	fake := &fakeMeasurements{measurements: []withings.BodyMeasurement{
		weighIn(2, 72), weighIn(0, 70), weighIn(3, 73), weighIn(1, 71),
	}}

	res, err := NewMeasurements(fake).List(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 30, fake.days)
	require.Len(t, res.Measurements, 4)

	for i, m := range res.Measurements {
		assert.Equal(t, day0.AddDate(0, 0, i), m.MeasuredAt)
	}
	assert.Nil(t, res.Measurements[0].MovingAverage7d)
	assert.Nil(t, res.Measurements[1].MovingAverage7d)
	require.NotNil(t, res.Measurements[2].MovingAverage7d)
	assert.InDelta(t, 71.0, res.Measurements[2].MovingAverage7d.WeightKg, 1e-9)
	assert.InDelta(t, 71.5, res.Measurements[3].MovingAverage7d.WeightKg, 1e-9)
	assert.InDelta(t, 14.0, res.Measurements[3].MovingAverage7d.FatMassKg, 1e-9)

	weight, ok := res.Trends[analysis.MetricWeight]
	require.True(t, ok)
	assert.InDelta(t, 1.0, weight.Slope, 1e-9)
	assert.InDelta(t, 70.0, weight.Intercept, 1e-9)
	assert.InDelta(t, 1.0, weight.R2, 1e-9)

	fat := res.Trends[analysis.MetricFatMass]
	assert.InDelta(t, 0.0, fat.Slope, 1e-9)
	assert.Equal(t, 0.0, fat.R2)
}

func TestMeasurementsListEmpty(t *testing.T) {
	res, err := NewMeasurements(&fakeMeasurements{}).List(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, res.Measurements)
	assert.Empty(t, res.Trends)
}

func TestMeasurementsListError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewMeasurements(&fakeMeasurements{err: boom}).List(context.Background(), 7)
	assert.ErrorIs(t, err, boom)
}
