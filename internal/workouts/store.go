package workouts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fitsync/internal/analysis"
	"fitsync/internal/docstore"
	"fitsync/internal/observability"
)

// Store reads and writes workouts and athlete profiles in a document store.
type Store struct {
	docs      docstore.Documents
	workoutDB string
	profileDB string
	logger    *slog.Logger
	locks     keyedMutex
	now       func() time.Time
}

// New creates a workout store over the given databases.
func New(docs docstore.Documents, workoutDB, profileDB string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		docs:      docs,
		workoutDB: workoutDB,
		profileDB: profileDB,
		logger:    logger,
		now:       time.Now,
	}
}

// Save upserts a workout keyed by its external id. Concurrent saves of the
// same id within this process run one at a time, so the second one updates
// the page the first one created.
func (s *Store) Save(ctx context.Context, in WorkoutInput) (*SaveResult, error) {
	unlock := s.locks.Lock(in.ExternalID)
	defer unlock()

	props := s.properties(in)

	id := float64(in.ExternalID)
	res, err := s.docs.Query(ctx, s.workoutDB, docstore.Query{
		Filter:   &docstore.Filter{Property: PropID, Number: &docstore.NumberCondition{Equals: &id}},
		PageSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("looking up workout %d: %w", in.ExternalID, err)
	}

	if len(res.Results) > 0 {
		pageID := res.Results[0].ID
		if _, err := s.docs.Update(ctx, pageID, props); err != nil {
			return nil, fmt.Errorf("updating workout %d: %w", in.ExternalID, err)
		}
		observability.RecordWorkoutSaved("updated")
		s.logger.Info("workout updated", "id", in.ExternalID, "page_id", pageID)
		return &SaveResult{PageID: pageID}, nil
	}

	page, err := s.docs.Create(ctx, s.workoutDB, props)
	if err != nil {
		return nil, fmt.Errorf("creating workout %d: %w", in.ExternalID, err)
	}
	observability.RecordWorkoutSaved("created")
	s.logger.Info("workout created", "id", in.ExternalID, "page_id", page.ID)
	return &SaveResult{PageID: page.ID, Created: true}, nil
}

func (s *Store) properties(in WorkoutInput) docstore.Properties {
	start := in.StartDate
	if start.IsZero() {
		start = s.now()
	}
	start = start.UTC()

	props := docstore.Properties{
		PropName:      docstore.Title(in.Name),
		PropDate:      docstore.Date(start.Format(dateLayout)),
		PropDuration:  docstore.Number(in.DurationS),
		PropDistance:  docstore.Number(in.DistanceM),
		PropElevation: docstore.Number(in.ElevationM),
		PropType:      docstore.Text(in.Type),
		PropID:        docstore.Number(float64(in.ExternalID)),
		PropDayOfWeek: docstore.Select(start.Weekday().String()),
		PropHRDrift:   docstore.Number(in.HRDriftPercent),
		PropVO2Max:    docstore.Number(in.VO2MaxMinutes),
	}

	setNumber(props, PropAverageCadence, in.AverageCadence)
	setNumber(props, PropAverageWatts, in.AverageWatts)
	setNumber(props, PropWeightedAverageWatts, in.WeightedAverageWatts)
	setNumber(props, PropKilojoules, in.Kilojoules)
	setNumber(props, PropKcal, in.Kcal)
	setNumber(props, PropAverageHeartrate, in.AverageHeartrate)
	setNumber(props, PropMaxHeartrate, in.MaxHeartrate)
	setNumber(props, PropTSS, in.TSS)
	setNumber(props, PropIF, in.IntensityFactor)

	if in.Description != "" {
		props[PropNotes] = docstore.Text(in.Description)
	}
	if in.Attachment != "" {
		props[PropAttachment] = docstore.ChunkedText(in.Attachment, attachmentChunk)
	}

	return props
}

// LatestAthleteProfile returns the most recent athlete profile entry.
// An empty profile database yields a zero profile.
func (s *Store) LatestAthleteProfile(ctx context.Context) (AthleteProfile, error) {
	res, err := s.docs.Query(ctx, s.profileDB, docstore.Query{
		Sorts:    []docstore.Sort{{Property: PropDate, Direction: docstore.Descending}},
		PageSize: 1,
	})
	if err != nil {
		return AthleteProfile{}, fmt.Errorf("querying athlete profile: %w", err)
	}
	if len(res.Results) == 0 {
		return AthleteProfile{}, nil
	}

	props := res.Results[0].Properties
	var profile AthleteProfile
	// a mistyped column leaves that value unknown
	profile.FTP, _ = number(props, PropFTP)
	profile.WeightKg, _ = number(props, PropWeight)
	profile.MaxHR, _ = number(props, PropMaxHR)
	profile.RestingHR, _ = number(props, PropRestingHR)
	return profile, nil
}

// ListRecent returns workouts dated within the last days days, following
// pagination. Pages that cannot be parsed are logged and skipped.
func (s *Store) ListRecent(ctx context.Context, days int) ([]Workout, error) {
	since := s.now().UTC().AddDate(0, 0, -days).Format(dateLayout)
	q := docstore.Query{
		Filter: &docstore.Filter{Property: PropDate, Date: &docstore.DateCondition{OnOrAfter: since}},
	}

	var workouts []Workout
	for {
		res, err := s.docs.Query(ctx, s.workoutDB, q)
		if err != nil {
			return nil, fmt.Errorf("listing workouts: %w", err)
		}
		for _, page := range res.Results {
			w, err := parseWorkout(page)
			if err != nil {
				s.logger.Warn("skipping workout page", "page_id", page.ID, "error", err)
				observability.RecordDropped("workouts")
				continue
			}
			workouts = append(workouts, *w)
		}
		if !res.HasMore || res.NextCursor == "" {
			break
		}
		q.StartCursor = res.NextCursor
	}

	return workouts, nil
}

// FillMissingMetrics completes a stored workout: IF and TSS are estimated
// from heart rate when either is missing and an empty type becomes
// DefaultType. Only changed properties are written.
func (s *Store) FillMissingMetrics(ctx context.Context, pageID string) (*Workout, error) {
	page, err := s.docs.Retrieve(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("retrieving workout %s: %w", pageID, err)
	}
	w, err := parseWorkout(*page)
	if err != nil {
		return nil, err
	}

	updates := docstore.Properties{}

	if w.TSS == nil || w.IntensityFactor == nil {
		profile, err := s.LatestAthleteProfile(ctx)
		if err != nil {
			return nil, err
		}
		est, ok := analysis.EstimateFromHR(analysis.HRInput{
			AverageHR:   w.AverageHeartrate,
			MaxHR:       w.MaxHeartrate,
			DurationS:   &w.DurationS,
			AthleteMax:  profile.MaxHR,
			AthleteRest: profile.RestingHR,
			Kcal:        w.Kcal,
		})
		if ok {
			if w.IntensityFactor == nil {
				w.IntensityFactor = &est.IF
				updates[PropIF] = docstore.Number(est.IF)
			}
			if w.TSS == nil {
				w.TSS = &est.TSS
				updates[PropTSS] = docstore.Number(est.TSS)
			}
		}
	}

	if w.Type == "" {
		w.Type = DefaultType
		updates[PropType] = docstore.Text(DefaultType)
	}

	if len(updates) > 0 {
		if _, err := s.docs.Update(ctx, pageID, updates); err != nil {
			return nil, fmt.Errorf("updating workout %s: %w", pageID, err)
		}
		s.logger.Info("workout metrics filled", "page_id", pageID, "properties", len(updates))
	}

	return w, nil
}

// parseWorkout maps a page onto a Workout.
func parseWorkout(page docstore.Page) (*Workout, error) {
	props := page.Properties
	w := &Workout{
		PageID: page.ID,
		Name:   title(props, PropName),
		Type:   workoutType(props),
	}

	var err error
	if w.Date, err = date(props, PropDate); err != nil {
		return nil, err
	}
	if p, ok := props[PropDayOfWeek]; ok && p.Select != nil {
		w.DayOfWeek = p.Select.Name
	}

	if w.DurationS, err = numberOr(props, PropDuration, 0); err != nil {
		return nil, err
	}
	if w.DistanceM, err = numberOr(props, PropDistance, 0); err != nil {
		return nil, err
	}
	if w.ElevationM, err = numberOr(props, PropElevation, 0); err != nil {
		return nil, err
	}
	id, err := numberOr(props, PropID, 0)
	if err != nil {
		return nil, err
	}
	w.ExternalID = int64(id)

	optional := []struct {
		name string
		dst  **float64
	}{
		{PropAverageCadence, &w.AverageCadence},
		{PropAverageWatts, &w.AverageWatts},
		{PropWeightedAverageWatts, &w.WeightedAverageWatts},
		{PropKilojoules, &w.Kilojoules},
		{PropKcal, &w.Kcal},
		{PropAverageHeartrate, &w.AverageHeartrate},
		{PropMaxHeartrate, &w.MaxHeartrate},
		{PropHRDrift, &w.HRDriftPercent},
		{PropVO2Max, &w.VO2MaxMinutes},
		{PropTSS, &w.TSS},
		{PropIF, &w.IntensityFactor},
	}
	for _, o := range optional {
		if *o.dst, err = number(props, o.name); err != nil {
			return nil, err
		}
	}

	if notes := richText(props, PropNotes); notes != "" {
		w.Notes = &notes
	}
	w.Attachment = richText(props, PropAttachment)

	return w, nil
}
