package withings

import (
	"math"
	"time"

	"fitsync/internal/analysis"
)

// Measure type codes used by the Withings measure API.
const (
	TypeWeight         = 1
	TypeFatFreeMass    = 5
	TypeBodyFatPercent = 6
	TypeFatMass        = 8
	TypeMuscleMass     = 76
	TypeHydration      = 77
	TypeBoneMass       = 88
)

// DefaultDevice names groups without a device.
const DefaultDevice = "Withings Device"

// MeasureGroup is one weigh-in as returned by getmeas.
type MeasureGroup struct {
	GroupID  int64     `json:"grpid"`
	Date     int64     `json:"date"` // unix seconds
	Device   *string   `json:"device"`
	Category int       `json:"category"`
	Measures []Measure `json:"measures"`
}

// Measure is a typed value encoded as value × 10^unit.
type Measure struct {
	Type  int   `json:"type"`
	Value int64 `json:"value"`
	Unit  int   `json:"unit"`
}

// Float decodes the measure.
func (m Measure) Float() float64 {
	return float64(m.Value) * math.Pow10(m.Unit)
}

// BodyMeasurement is a decoded weigh-in.
type BodyMeasurement struct {
	MeasuredAt      time.Time `json:"measurement_time"`
	WeightKg        float64   `json:"weight_kg"`
	FatMassKg       float64   `json:"fat_mass_kg"`
	MuscleMassKg    float64   `json:"muscle_mass_kg"`
	BoneMassKg      float64   `json:"bone_mass_kg"`
	HydrationKg     float64   `json:"hydration_kg"`
	FatFreeMassKg   float64   `json:"fat_free_mass_kg"`
	BodyFatPercent  float64   `json:"body_fat_percent"`
	DeviceName      string    `json:"device_name"`
	MovingAverage7d *Averages `json:"moving_average_7d"`
}

// Averages is a moving average snapshot of every body metric.
type Averages struct {
	WeightKg       float64 `json:"weight_kg"`
	FatMassKg      float64 `json:"fat_mass_kg"`
	MuscleMassKg   float64 `json:"muscle_mass_kg"`
	BoneMassKg     float64 `json:"bone_mass_kg"`
	HydrationKg    float64 `json:"hydration_kg"`
	FatFreeMassKg  float64 `json:"fat_free_mass_kg"`
	BodyFatPercent float64 `json:"body_fat_percent"`
}

// Decode converts a measure group. Codes not present decode to zero.
func (g MeasureGroup) Decode() BodyMeasurement {
	values := make(map[int]float64, len(g.Measures))
	for _, m := range g.Measures {
		values[m.Type] = m.Float()
	}

	device := DefaultDevice
	if g.Device != nil && *g.Device != "" {
		device = *g.Device
	}

	return BodyMeasurement{
		MeasuredAt:     time.Unix(g.Date, 0).UTC(),
		WeightKg:       values[TypeWeight],
		FatMassKg:      values[TypeFatMass],
		MuscleMassKg:   values[TypeMuscleMass],
		BoneMassKg:     values[TypeBoneMass],
		HydrationKg:    values[TypeHydration],
		FatFreeMassKg:  values[TypeFatFreeMass],
		BodyFatPercent: values[TypeBodyFatPercent],
		DeviceName:     device,
	}
}

// Sample converts the measurement to a metrics engine sample.
func (m BodyMeasurement) Sample() analysis.Sample {
	return analysis.Sample{
		At: m.MeasuredAt,
		Values: map[string]float64{
			analysis.MetricWeight:         m.WeightKg,
			analysis.MetricFatMass:        m.FatMassKg,
			analysis.MetricMuscleMass:     m.MuscleMassKg,
			analysis.MetricBoneMass:       m.BoneMassKg,
			analysis.MetricHydration:      m.HydrationKg,
			analysis.MetricFatFreeMass:    m.FatFreeMassKg,
			analysis.MetricBodyFatPercent: m.BodyFatPercent,
		},
	}
}

// AveragesFrom builds a snapshot from moving average values keyed by metric.
// A nil map yields nil.
func AveragesFrom(values map[string]float64) *Averages {
	if values == nil {
		return nil
	}
	return &Averages{
		WeightKg:       values[analysis.MetricWeight],
		FatMassKg:      values[analysis.MetricFatMass],
		MuscleMassKg:   values[analysis.MetricMuscleMass],
		BoneMassKg:     values[analysis.MetricBoneMass],
		HydrationKg:    values[analysis.MetricHydration],
		FatFreeMassKg:  values[analysis.MetricFatFreeMass],
		BodyFatPercent: values[analysis.MetricBodyFatPercent],
	}
}
