package workouts

import (
	"fmt"
	"time"

	"fitsync/internal/docstore"
	"fitsync/internal/errs"
)

// Workout database property names
const (
	PropName                 = "Name"
	PropDate                 = "Date"
	PropDuration             = "Duration [s]"
	PropDistance             = "Distance [m]"
	PropElevation            = "Elevation [m]"
	PropType                 = "Type"
	PropID                   = "Id"
	PropDayOfWeek            = "Day of week"
	PropAverageCadence       = "Average Cadence"
	PropAverageWatts         = "Average Watts"
	PropWeightedAverageWatts = "Weighted Average Watts"
	PropKilojoules           = "Kilojoules"
	PropKcal                 = "Kcal"
	PropAverageHeartrate     = "Average Heartrate"
	PropMaxHeartrate         = "Max Heartrate"
	PropHRDrift              = "HR drift [%]"
	PropVO2Max               = "VO2 MAX [min]"
	PropTSS                  = "TSS"
	PropIF                   = "IF"
	PropNotes                = "Notes"
	PropAttachment           = "Attachment"
)

// Athlete profile database property names
const (
	PropFTP       = "FTP Watts"
	PropWeight    = "Weight Kg"
	PropMaxHR     = "Max HR"
	PropRestingHR = "Resting HR"
)

const (
	// DefaultType is used for workouts stored without a type
	DefaultType = "Workout"

	// attachmentChunk is the largest rich text run the document store accepts
	attachmentChunk = 2000

	dateLayout = "2006-01-02"
)

// number reads a numeric property. A missing or null property is nil; a
// property holding another kind of value is a parse error.
func number(props docstore.Properties, name string) (*float64, error) {
	p, ok := props[name]
	if !ok || p.Number != nil {
		return p.Number, nil
	}
	if p.Title != nil || p.RichText != nil || p.Date != nil || p.Select != nil {
		return nil, errs.Errorf(errs.KindPersistenceParse, "workouts.number", "property %q is not a number", name)
	}
	return nil, nil
}

// numberOr reads a numeric property, returning def when it is unset.
func numberOr(props docstore.Properties, name string, def float64) (float64, error) {
	v, err := number(props, name)
	if err != nil || v == nil {
		return def, err
	}
	return *v, nil
}

func title(props docstore.Properties, name string) string {
	p, ok := props[name]
	if !ok || len(p.Title) == 0 {
		return ""
	}
	return p.PlainText()
}

func richText(props docstore.Properties, name string) string {
	p, ok := props[name]
	if !ok || len(p.RichText) == 0 {
		return ""
	}
	return p.PlainText()
}

// date reads a date property and validates the day part.
func date(props docstore.Properties, name string) (string, error) {
	p, ok := props[name]
	if !ok || p.Date == nil || p.Date.Start == "" {
		return "", nil
	}
	start := p.Date.Start
	if len(start) < len(dateLayout) {
		return "", errs.Errorf(errs.KindPersistenceParse, "workouts.date", "property %q: invalid date %q", name, start)
	}
	if _, err := time.Parse(dateLayout, start[:len(dateLayout)]); err != nil {
		return "", errs.E(errs.KindPersistenceParse, "workouts.date", fmt.Errorf("property %q: %w", name, err))
	}
	return start, nil
}

// workoutType reads Type, which older databases store as a select.
func workoutType(props docstore.Properties) string {
	if v := richText(props, PropType); v != "" {
		return v
	}
	if p, ok := props[PropType]; ok && p.Select != nil {
		return p.Select.Name
	}
	return ""
}

// setNumber writes v only when it is known.
func setNumber(props docstore.Properties, name string, v *float64) {
	if v != nil {
		props[name] = docstore.Number(*v)
	}
}
