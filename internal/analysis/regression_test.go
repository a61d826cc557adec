package analysis

import (
	"math"
	"testing"
	"time"
)

var day0 = time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)

func sampleAt(days int, values map[string]float64) Sample {
	return Sample{At: day0.AddDate(0, 0, days), Values: values}
}

func TestLinearRegression(t *testing.T) {
	samples := []Sample{
		sampleAt(2, map[string]float64{MetricWeight: 72}),
		sampleAt(0, map[string]float64{MetricWeight: 70}),
		sampleAt(1, map[string]float64{MetricWeight: 71}),
	}

	trends := LinearRegression(samples, nil)

	weight, ok := trends[MetricWeight]
	if !ok {
		t.Fatal("expected weight trend")
	}
	if math.Abs(weight.Slope-1.0) > 1e-9 {
		t.Errorf("Slope = %v, want 1.0", weight.Slope)
	}
	if math.Abs(weight.Intercept-70.0) > 1e-9 {
		t.Errorf("Intercept = %v, want 70.0", weight.Intercept)
	}
	if math.Abs(weight.R2-1.0) > 1e-9 {
		t.Errorf("R2 = %v, want 1.0", weight.R2)
	}

	if _, ok := trends[MetricBodyFatPercent]; ok {
		t.Error("body fat has no data and should be omitted")
	}
}

func TestLinearRegressionEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
		metric  string
		want    *Trend
	}{
		{
			name:    "no samples",
			samples: nil,
			metric:  MetricWeight,
		},
		{
			name:    "single valid point",
			samples: []Sample{sampleAt(0, map[string]float64{MetricWeight: 70}), sampleAt(1, nil)},
			metric:  MetricWeight,
		},
		{
			name: "constant values have zero r2",
			samples: []Sample{
				sampleAt(0, map[string]float64{MetricWeight: 70}),
				sampleAt(3, map[string]float64{MetricWeight: 70}),
			},
			metric: MetricWeight,
			want:   &Trend{Slope: 0, Intercept: 70, R2: 0},
		},
		{
			name: "same timestamp has zero slope",
			samples: []Sample{
				sampleAt(0, map[string]float64{MetricWeight: 70}),
				sampleAt(0, map[string]float64{MetricWeight: 72}),
			},
			metric: MetricWeight,
			want:   &Trend{Slope: 0, Intercept: 71, R2: 0},
		},
		{
			name: "nulls excluded pairwise",
			samples: []Sample{
				sampleAt(0, map[string]float64{MetricFatMass: 20}),
				sampleAt(1, map[string]float64{MetricWeight: 99}),
				sampleAt(2, map[string]float64{MetricFatMass: 18}),
			},
			metric: MetricFatMass,
			want:   &Trend{Slope: -1, Intercept: 20, R2: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trends := LinearRegression(tt.samples, []string{tt.metric})
			got, ok := trends[tt.metric]
			if tt.want == nil {
				if ok {
					t.Errorf("LinearRegression() = %+v, want metric omitted", got)
				}
				return
			}
			if !ok {
				t.Fatal("metric missing from result")
			}
			if math.Abs(got.Slope-tt.want.Slope) > 1e-9 ||
				math.Abs(got.Intercept-tt.want.Intercept) > 1e-9 ||
				math.Abs(got.R2-tt.want.R2) > 1e-9 {
				t.Errorf("LinearRegression() = %+v, want %+v", got, *tt.want)
			}
		})
	}
}
