package analysis

import "math"

// DefaultRestingHR is used when the athlete profile carries no resting heart rate.
const DefaultRestingHR = 66.0

const (
	minIF = 0.30
	maxIF = 1.35
)

// HRInput holds the session and athlete heart rate data for an IF/TSS estimate.
// A nil or non-positive field counts as missing.
type HRInput struct {
	AverageHR   *float64
	MaxHR       *float64 // session max
	DurationS   *float64
	AthleteMax  *float64
	AthleteRest *float64
	Kcal        *float64 // accepted but not used by the model
}

// IFEstimate is an intensity factor and training stress score pair.
type IFEstimate struct {
	IF  float64
	TSS float64
}

// EstimateFromHR estimates intensity factor and TSS from heart rate when no
// power data exists. ok is false when any required input is missing.
//
// Lactate threshold HR is estimated as
// min(0.90*maxA, max(0.85*maxA, 0.98*sessionMax)), falling back to the flat
// 0.90*maxA guess when the candidate sits within 10 bpm of resting HR.
// IF is the heart rate reserve fraction relative to threshold plus a bump of
// up to 0.08 for time spent above threshold, clamped to [0.30, 1.35].
// IF is rounded to 2 decimals and TSS to 1.
func EstimateFromHR(in HRInput) (IFEstimate, bool) {
	avg := valueOr(in.AverageHR, 0)
	sessionMax := valueOr(in.MaxHR, 0)
	dur := valueOr(in.DurationS, 0)
	athleteMax := valueOr(in.AthleteMax, 0)
	if avg <= 0 || sessionMax <= 0 || dur <= 0 || athleteMax <= 0 {
		return IFEstimate{}, false
	}

	rest := valueOr(in.AthleteRest, 0)
	if rest <= 0 {
		rest = DefaultRestingHR
	}

	lthrGuess := 0.90 * athleteMax
	lthr := math.Min(lthrGuess, math.Max(0.85*athleteMax, 0.98*sessionMax))
	if lthr <= rest+10 {
		lthr = lthrGuess
	}

	hrRange := math.Max(1, athleteMax-rest)
	thrRange := math.Max(1, lthr-rest)

	var ifEst float64
	if avg <= rest+5 {
		ifEst = minIF
	} else {
		base := (avg - rest) / thrRange
		supra := math.Max(0, sessionMax-lthr)
		supraCap := math.Max(1, athleteMax-lthr)
		bump := 0.08 * (supra / supraCap)
		ifEst = clamp(base+bump, minIF, maxIF)
	}

	// degenerate profile: max and threshold both sit on top of resting HR
	if thrRange <= 1 && hrRange <= 1 {
		ifEst = minIF
	}

	tss := dur / 3600 * ifEst * 100
	return IFEstimate{IF: round(ifEst, 2), TSS: round(tss, 1)}, true
}

// PowerIntensity derives IF and TSS from weighted average power and FTP.
// TSS = t * W * IF / (FTP * 3600) * 100. Values are not rounded.
func PowerIntensity(weightedWatts, ftp, movingTime float64) (IFEstimate, bool) {
	if ftp <= 0 || weightedWatts <= 0 {
		return IFEstimate{}, false
	}
	intensity := weightedWatts / ftp
	tss := movingTime * weightedWatts * intensity / (ftp * 3600) * 100
	return IFEstimate{IF: intensity, TSS: tss}, true
}

// round rounds v to places decimals with halves away from zero, so a TSS
// of 12.25 becomes 12.3 rather than the round-half-to-even 12.2.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
