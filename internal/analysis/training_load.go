package analysis

import (
	"sort"
	"time"
)

// Time constants for the fitness and fatigue averages, in days.
const (
	FitnessDays = 42
	FatigueDays = 7
)

// DailyLoad is the training stress logged for one workout or day.
type DailyLoad struct {
	Date time.Time
	TSS  float64
}

// LoadPoint is the CTL/ATL/TSB state at the end of a day.
type LoadPoint struct {
	Date time.Time `json:"date"`
	CTL  float64   `json:"ctl"` // fitness
	ATL  float64   `json:"atl"` // fatigue
	TSB  float64   `json:"tsb"` // form, CTL - ATL
}

// TrainingLoad runs exponential moving averages of daily TSS from the first
// to the last logged day. Days without workouts count as zero load and
// several workouts on one day are summed.
func TrainingLoad(loads []DailyLoad) []LoadPoint {
	if len(loads) == 0 {
		return nil
	}

	byDay := make(map[time.Time]float64, len(loads))
	days := make([]time.Time, 0, len(loads))
	for _, l := range loads {
		d := dayOf(l.Date)
		if _, seen := byDay[d]; !seen {
			days = append(days, d)
		}
		byDay[d] += l.TSS
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	ctlK := 2.0 / (FitnessDays + 1)
	atlK := 2.0 / (FatigueDays + 1)

	var ctl, atl float64
	var points []LoadPoint
	for d := days[0]; !d.After(days[len(days)-1]); d = d.AddDate(0, 0, 1) {
		tss := byDay[d]
		ctl += ctlK * (tss - ctl)
		atl += atlK * (tss - atl)
		points = append(points, LoadPoint{Date: d, CTL: ctl, ATL: atl, TSB: ctl - atl})
	}

	return points
}

// CurrentLoad returns the most recent training load state.
func CurrentLoad(loads []DailyLoad) LoadPoint {
	points := TrainingLoad(loads)
	if len(points) == 0 {
		return LoadPoint{}
	}
	return points[len(points)-1]
}

// FormDescription describes a TSB value.
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
