package analysis

import "math"

// VO2Params tunes the VO2max-minutes model.
type VO2Params struct {
	// Threshold is the fraction of max HR above which effort counts toward VO2max
	Threshold float64
	// Tau is the heart rate kinetics time constant in seconds
	Tau float64
	// PeakCap limits how much the split's peak HR can add back
	PeakCap float64
}

// DefaultVO2Params returns the standard model parameters.
func DefaultVO2Params() VO2Params {
	return VO2Params{
		Threshold: 0.88,
		Tau:       30,
		PeakCap:   0.70,
	}
}

// VO2MaxMinutes estimates the minutes spent at or above VO2max intensity
// using the default parameters.
func VO2MaxMinutes(splits []Split, maxHR float64) float64 {
	return VO2MaxMinutesWith(splits, maxHR, DefaultVO2Params())
}

// VO2MaxMinutesWith estimates VO2max minutes with custom parameters.
//
// Per split, average and peak HR are mapped to an "excess over threshold"
// in [0,1]. The peak signal is damped by a settling factor 1 - e^(-t/tau)
// so short efforts, where HR lags behind the work, count less.
// Splits with non-positive duration or heart rates are skipped.
func VO2MaxMinutesWith(splits []Split, maxHR float64, p VO2Params) float64 {
	if len(splits) == 0 || maxHR <= 0 {
		return 0
	}

	excess := func(fraction float64) float64 {
		denom := 1 - p.Threshold
		if denom <= 0 {
			return 0
		}
		return clamp((fraction-p.Threshold)/denom, 0, 1)
	}

	var totalSeconds float64
	for _, s := range splits {
		seconds := s.MovingTime
		avgHR := valueOr(s.AverageHeartrate, 0)
		peakHR := valueOr(s.MaxHeartrate, 0)
		if seconds <= 0 || avgHR <= 0 || peakHR <= 0 {
			continue
		}

		avgEvidence := excess(avgHR / maxHR)
		peakEvidence := excess(peakHR / maxHR)

		settling := 1.0
		if p.Tau > 0 {
			settling = clamp(1-math.Exp(-seconds/p.Tau), 0, 1)
		}

		addBack := p.PeakCap * settling * peakEvidence
		zone := clamp(avgEvidence+(1-avgEvidence)*addBack, 0, 1)

		totalSeconds += zone * seconds
	}

	return totalSeconds / 60
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
