package analysis

import (
	"math"
	"testing"
)

func TestComputeActivityMetrics(t *testing.T) {
	threeLaps := []Split{
		hrSplit(60, 190, 190),
		hrSplit(60, 190, 190),
		hrSplit(60, 190, 190),
	}

	tests := []struct {
		name     string
		activity ActivityInput
		profile  Profile
		checkFn  func(t *testing.T, m ActivityMetrics)
	}{
		{
			name: "power based intensity",
			activity: ActivityInput{
				Laps:                 threeLaps,
				MovingTime:           180,
				WeightedAverageWatts: floatPtr(210),
			},
			profile: Profile{FTP: floatPtr(200), MaxHR: floatPtr(190)},
			checkFn: func(t *testing.T, m ActivityMetrics) {
				if math.Abs(m.VO2MaxMinutes-3.0) > 1e-9 {
					t.Errorf("VO2MaxMinutes = %v, want 3.0", m.VO2MaxMinutes)
				}
				if m.IntensityFactor == nil || math.Abs(*m.IntensityFactor-1.05) > 1e-9 {
					t.Errorf("IntensityFactor = %v, want 1.05", m.IntensityFactor)
				}
				if m.TSS == nil || math.Abs(*m.TSS-5.5125) > 1e-9 {
					t.Errorf("TSS = %v, want 5.5125", m.TSS)
				}
			},
		},
		{
			name: "two laps fall back to splits",
			activity: ActivityInput{
				Splits: []Split{hrSplit(60, 190, 190)},
				Laps:   []Split{hrSplit(600, 190, 190), hrSplit(600, 190, 190)},
			},
			profile: Profile{MaxHR: floatPtr(190)},
			checkFn: func(t *testing.T, m ActivityMetrics) {
				if math.Abs(m.VO2MaxMinutes-1.0) > 1e-9 {
					t.Errorf("VO2MaxMinutes = %v, want 1.0 from splits", m.VO2MaxMinutes)
				}
			},
		},
		{
			name: "no max HR means no VO2",
			activity: ActivityInput{
				Laps: threeLaps,
			},
			profile: Profile{},
			checkFn: func(t *testing.T, m ActivityMetrics) {
				if m.VO2MaxMinutes != 0 {
					t.Errorf("VO2MaxMinutes = %v, want 0", m.VO2MaxMinutes)
				}
				if m.IntensityFactor != nil || m.TSS != nil {
					t.Error("expected no intensity without power or profile")
				}
			},
		},
		{
			name: "power without moving time keeps IF only",
			activity: ActivityInput{
				WeightedAverageWatts: floatPtr(200),
			},
			profile: Profile{FTP: floatPtr(250)},
			checkFn: func(t *testing.T, m ActivityMetrics) {
				if m.IntensityFactor == nil || math.Abs(*m.IntensityFactor-0.8) > 1e-9 {
					t.Errorf("IntensityFactor = %v, want 0.8", m.IntensityFactor)
				}
				if m.TSS != nil {
					t.Errorf("TSS = %v, want nil", *m.TSS)
				}
			},
		},
		{
			name: "heart rate estimate without power",
			activity: ActivityInput{
				MovingTime:       3600,
				AverageHeartrate: floatPtr(150),
				MaxHeartrate:     floatPtr(175),
			},
			profile: Profile{MaxHR: floatPtr(190), RestingHR: floatPtr(60)},
			checkFn: func(t *testing.T, m ActivityMetrics) {
				if m.IntensityFactor == nil || *m.IntensityFactor != 0.83 {
					t.Errorf("IntensityFactor = %v, want 0.83", m.IntensityFactor)
				}
				if m.TSS == nil || *m.TSS != 82.8 {
					t.Errorf("TSS = %v, want 82.8", m.TSS)
				}
			},
		},
		{
			name: "weighted watts without ftp falls back to heart rate",
			activity: ActivityInput{
				MovingTime:           3600,
				WeightedAverageWatts: floatPtr(240),
				AverageHeartrate:     floatPtr(150),
				MaxHeartrate:         floatPtr(175),
			},
			profile: Profile{MaxHR: floatPtr(190), RestingHR: floatPtr(60)},
			checkFn: func(t *testing.T, m ActivityMetrics) {
				if m.IntensityFactor == nil || *m.IntensityFactor != 0.83 {
					t.Errorf("IntensityFactor = %v, want 0.83", m.IntensityFactor)
				}
				if m.TSS == nil || *m.TSS != 82.8 {
					t.Errorf("TSS = %v, want 82.8", m.TSS)
				}
			},
		},
		{
			name: "weighted watts without ftp or heart rate",
			activity: ActivityInput{
				MovingTime:           3600,
				WeightedAverageWatts: floatPtr(240),
			},
			checkFn: func(t *testing.T, m ActivityMetrics) {
				if m.IntensityFactor != nil || m.TSS != nil {
					t.Errorf("IF/TSS = %v/%v, want nil", m.IntensityFactor, m.TSS)
				}
			},
		},
		{
			name: "drift from splits",
			activity: ActivityInput{
				Splits: []Split{hrSplit(300, 140, 150), hrSplit(300, 154, 160)},
			},
			checkFn: func(t *testing.T, m ActivityMetrics) {
				if math.Abs(m.HRDrift-10) > 1e-9 {
					t.Errorf("HRDrift = %v, want 10", m.HRDrift)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFn(t, ComputeActivityMetrics(tt.activity, tt.profile))
		})
	}
}
