package analysis

// ActivityInput is the subset of an activity the metrics are derived from.
type ActivityInput struct {
	Splits               []Split // per-kilometre splits
	Laps                 []Split
	MovingTime           float64
	WeightedAverageWatts *float64
	AverageHeartrate     *float64
	MaxHeartrate         *float64
}

// Profile holds the athlete reference values. Nil means unknown.
type Profile struct {
	FTP       *float64
	MaxHR     *float64
	RestingHR *float64
}

// ActivityMetrics are the derived metrics persisted with a workout.
type ActivityMetrics struct {
	HRDrift         float64
	VO2MaxMinutes   float64
	TSS             *float64
	IntensityFactor *float64
}

// ComputeActivityMetrics calculates all derived metrics for one activity.
//
// VO2 minutes come from laps when there are more than two, otherwise from
// splits. IF and TSS come from weighted power when FTP is known; failing
// that they are estimated from heart rate.
func ComputeActivityMetrics(a ActivityInput, p Profile) ActivityMetrics {
	metrics := ActivityMetrics{
		HRDrift: HRDrift(a.Splits),
	}

	vo2Splits := a.Splits
	if len(a.Laps) > 2 {
		vo2Splits = a.Laps
	}
	if maxHR := valueOr(p.MaxHR, 0); maxHR > 0 {
		metrics.VO2MaxMinutes = VO2MaxMinutes(vo2Splits, maxHR)
	}

	ftp := valueOr(p.FTP, 0)
	watts := valueOr(a.WeightedAverageWatts, 0)
	if est, ok := PowerIntensity(watts, ftp, a.MovingTime); ok {
		metrics.IntensityFactor = &est.IF
		if a.MovingTime > 0 {
			metrics.TSS = &est.TSS
		}
		return metrics
	}

	if est, ok := EstimateFromHR(HRInput{
		AverageHR:   a.AverageHeartrate,
		MaxHR:       a.MaxHeartrate,
		DurationS:   &a.MovingTime,
		AthleteMax:  p.MaxHR,
		AthleteRest: p.RestingHR,
	}); ok {
		metrics.IntensityFactor = &est.IF
		metrics.TSS = &est.TSS
	}

	return metrics
}
