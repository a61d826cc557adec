package analysis

import (
	"sort"
	"time"
)

// Body measurement metric names, shared by trends and moving averages.
const (
	MetricWeight         = "weight_kg"
	MetricFatMass        = "fat_mass_kg"
	MetricMuscleMass     = "muscle_mass_kg"
	MetricBoneMass       = "bone_mass_kg"
	MetricHydration      = "hydration_kg"
	MetricFatFreeMass    = "fat_free_mass_kg"
	MetricBodyFatPercent = "body_fat_percent"
)

// DefaultTrendMetrics are the metrics trended when the caller names none.
var DefaultTrendMetrics = []string{
	MetricWeight,
	MetricBodyFatPercent,
	MetricMuscleMass,
	MetricFatMass,
}

// Sample is one timestamped set of metric values.
// A metric missing from Values is a null observation.
type Sample struct {
	At     time.Time
	Values map[string]float64
}

// Trend is an ordinary least squares fit of a metric against elapsed days.
type Trend struct {
	Slope     float64 `json:"slope"` // units per day
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// LinearRegression fits each metric against days since the earliest sample.
// Nulls are excluded pairwise; a metric with fewer than two valid points is
// omitted from the result.
func LinearRegression(samples []Sample, metrics []string) map[string]Trend {
	if metrics == nil {
		metrics = DefaultTrendMetrics
	}

	results := make(map[string]Trend)
	if len(samples) == 0 {
		return results
	}

	sorted := sortedSamples(samples)
	start := sorted[0].At

	for _, metric := range metrics {
		var xs, ys []float64
		for _, s := range sorted {
			y, ok := s.Values[metric]
			if !ok {
				continue
			}
			xs = append(xs, s.At.Sub(start).Hours()/24)
			ys = append(ys, y)
		}
		if len(xs) < 2 {
			continue
		}
		results[metric] = fitLine(xs, ys)
	}

	return results
}

func fitLine(xs, ys []float64) Trend {
	n := float64(len(xs))
	var xSum, ySum float64
	for i := range xs {
		xSum += xs[i]
		ySum += ys[i]
	}
	xMean, yMean := xSum/n, ySum/n

	var num, den float64
	for i := range xs {
		num += (xs[i] - xMean) * (ys[i] - yMean)
		den += (xs[i] - xMean) * (xs[i] - xMean)
	}

	var slope float64
	if den != 0 {
		slope = num / den
	}
	intercept := yMean - slope*xMean

	var ssTot, ssRes float64
	for i := range xs {
		ssTot += (ys[i] - yMean) * (ys[i] - yMean)
		r := ys[i] - (slope*xs[i] + intercept)
		ssRes += r * r
	}

	var r2 float64
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}

	return Trend{Slope: slope, Intercept: intercept, R2: r2}
}

// sortedSamples returns a copy of samples ordered by time
func sortedSamples(samples []Sample) []Sample {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.Before(sorted[j].At)
	})
	return sorted
}
