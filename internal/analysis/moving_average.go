package analysis

// MovingAverageMetrics are the metrics averaged for body measurements.
var MovingAverageMetrics = []string{
	MetricWeight,
	MetricFatMass,
	MetricMuscleMass,
	MetricBoneMass,
	MetricHydration,
	MetricFatFreeMass,
	MetricBodyFatPercent,
}

// DefaultWindow is the moving average window in samples.
const DefaultWindow = 7

const minWindowValues = 3

// Averaged pairs a sample with its moving average snapshot.
// Averages is nil when the window did not hold enough data.
type Averaged struct {
	Sample
	Averages map[string]float64
}

// MovingAverage attaches a trailing moving average to each sample, in time order.
//
// A snapshot is attached only when every metric has at least three non-null
// values in the window. One sparse metric nulls the whole snapshot even when
// the others have plenty of data.
func MovingAverage(samples []Sample, metrics []string, window int) []Averaged {
	if metrics == nil {
		metrics = MovingAverageMetrics
	}
	if window <= 0 {
		window = DefaultWindow
	}

	sorted := sortedSamples(samples)
	out := make([]Averaged, 0, len(sorted))

	for i, s := range sorted {
		lo := max(0, i-window+1)
		windowed := sorted[lo : i+1]

		averages := make(map[string]float64, len(metrics))
		for _, metric := range metrics {
			var total float64
			var count int
			for _, w := range windowed {
				if v, ok := w.Values[metric]; ok {
					total += v
					count++
				}
			}
			if count < minWindowValues {
				break
			}
			averages[metric] = total / float64(count)
		}

		a := Averaged{Sample: s}
		if len(averages) == len(metrics) {
			a.Averages = averages
		}
		out = append(out, a)
	}

	return out
}
