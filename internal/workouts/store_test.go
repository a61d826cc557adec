package workouts

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/docstore"
	"fitsync/internal/errs"
	"fitsync/internal/observability"
	"fitsync/internal/store"
)

const (
	workoutDB = "workouts-db"
	profileDB = "profile-db"
)

var testNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func newTestStore(t *testing.T) (*Store, *store.Pages) {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pages := db.Pages()
	s := New(pages, workoutDB, profileDB, nil)
	s.now = func() time.Time { return testNow }
	return s, pages
}

func sampleInput() WorkoutInput {
	return WorkoutInput{
		ExternalID:       1234567890,
		Name:             "Morning Ride",
		StartDate:        time.Date(2025, 3, 8, 7, 30, 0, 0, time.UTC),
		Type:             "Ride",
		DurationS:        3700,
		DistanceM:        30500.5,
		ElevationM:       320,
		AverageHeartrate: ptr(142),
		MaxHeartrate:     ptr(171),
		Kcal:             ptr(820),
		HRDriftPercent:   3.4,
		VO2MaxMinutes:    1.5,
		TSS:              ptr(72.3),
		IntensityFactor:  ptr(0.81),
		Description:      "easy spin",
		Attachment:       "H4sIAAAA",
	}
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	s, pages := newTestStore(t)

	created := testutil.ToFloat64(observability.WorkoutsSaved("created"))
	updated := testutil.ToFloat64(observability.WorkoutsSaved("updated"))

	first, err := s.Save(ctx, sampleInput())
	require.NoError(t, err)
	assert.True(t, first.Created)

	in := sampleInput()
	in.Name = "Morning Ride (edited)"
	second, err := s.Save(ctx, in)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.PageID, second.PageID)

	res, err := pages.Query(ctx, workoutDB, docstore.Query{})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	props := res.Results[0].Properties
	assert.Equal(t, "Morning Ride (edited)", props[PropName].PlainText())
	assert.Equal(t, "2025-03-08", props[PropDate].Date.Start)
	assert.Equal(t, "Saturday", props[PropDayOfWeek].Select.Name)
	assert.Equal(t, 1234567890.0, *props[PropID].Number)
	assert.Equal(t, "Ride", props[PropType].PlainText())
	assert.Equal(t, "easy spin", props[PropNotes].PlainText())
	assert.Equal(t, "H4sIAAAA", props[PropAttachment].PlainText())
	assert.Equal(t, 72.3, *props[PropTSS].Number)

	assert.Equal(t, created+1, testutil.ToFloat64(observability.WorkoutsSaved("created")))
	assert.Equal(t, updated+1, testutil.ToFloat64(observability.WorkoutsSaved("updated")))
}

func TestSaveOmitsUnknownValues(t *testing.T) {
	ctx := context.Background()
	s, pages := newTestStore(t)

	in := WorkoutInput{ExternalID: 7, Name: "Walk", Type: "Walk", DurationS: 600}
	res, err := s.Save(ctx, in)
	require.NoError(t, err)

	page, err := pages.Retrieve(ctx, res.PageID)
	require.NoError(t, err)
	for _, name := range []string{PropAverageWatts, PropKcal, PropTSS, PropIF, PropNotes, PropAttachment} {
		assert.NotContains(t, page.Properties, name)
	}
	// a zero start date falls back to today
	assert.Equal(t, "2025-03-10", page.Properties[PropDate].Date.Start)
	assert.Equal(t, "Monday", page.Properties[PropDayOfWeek].Select.Name)
	assert.Equal(t, 0.0, *page.Properties[PropHRDrift].Number)
}

func TestSaveChunksAttachment(t *testing.T) {
	ctx := context.Background()
	s, pages := newTestStore(t)

	in := sampleInput()
	in.Attachment = strings.Repeat("a", 4500)
	res, err := s.Save(ctx, in)
	require.NoError(t, err)

	page, err := pages.Retrieve(ctx, res.PageID)
	require.NoError(t, err)
	runs := page.Properties[PropAttachment].RichText
	require.Len(t, runs, 3)
	assert.Len(t, runs[0].Text.Content, 2000)
	assert.Len(t, runs[2].Text.Content, 500)
	assert.Equal(t, in.Attachment, page.Properties[PropAttachment].PlainText())
}

func TestSaveConcurrentSameID(t *testing.T) {
	ctx := context.Background()
	s, pages := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Save(ctx, sampleInput())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	res, err := pages.Query(ctx, workoutDB, docstore.Query{})
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
}

func TestLatestAthleteProfile(t *testing.T) {
	ctx := context.Background()
	s, pages := newTestStore(t)

	profile, err := s.LatestAthleteProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, AthleteProfile{}, profile)

	_, err = pages.Create(ctx, profileDB, docstore.Properties{
		PropDate:  docstore.Date("2025-01-01"),
		PropFTP:   docstore.Number(240),
		PropMaxHR: docstore.Number(188),
	})
	require.NoError(t, err)
	_, err = pages.Create(ctx, profileDB, docstore.Properties{
		PropDate:      docstore.Date("2025-02-15"),
		PropFTP:       docstore.Number(255),
		PropWeight:    docstore.Number(71.5),
		PropMaxHR:     docstore.Number(187),
		PropRestingHR: docstore.Number(52),
	})
	require.NoError(t, err)

	profile, err = s.LatestAthleteProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile.FTP)
	assert.Equal(t, 255.0, *profile.FTP)
	assert.Equal(t, 71.5, *profile.WeightKg)
	assert.Equal(t, 187.0, *profile.MaxHR)
	assert.Equal(t, 52.0, *profile.RestingHR)

	m := profile.Metrics()
	assert.Equal(t, 255.0, *m.FTP)
	assert.Equal(t, 52.0, *m.RestingHR)
}

func TestListRecent(t *testing.T) {
	ctx := context.Background()
	s, pages := newTestStore(t)

	for i, day := range []string{"2025-03-09", "2025-03-04", "2025-02-20"} {
		_, err := pages.Create(ctx, workoutDB, docstore.Properties{
			PropName:     docstore.Title("run " + day),
			PropDate:     docstore.Date(day),
			PropDuration: docstore.Number(1800),
			PropID:       docstore.Number(float64(i + 1)),
			PropType:     docstore.Select("Run"),
			PropTSS:      docstore.Number(40),
		})
		require.NoError(t, err)
	}
	// wrong property type
	_, err := pages.Create(ctx, workoutDB, docstore.Properties{
		PropName:     docstore.Title("broken"),
		PropDate:     docstore.Date("2025-03-08"),
		PropDuration: docstore.Text("an hour"),
	})
	require.NoError(t, err)

	dropped := testutil.ToFloat64(observability.RecordsDropped("workouts"))

	got, err := s.ListRecent(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 2)

	var names []string
	for _, w := range got {
		names = append(names, w.Name)
		assert.Equal(t, "Run", w.Type)
		assert.Equal(t, 1800.0, w.DurationS)
		assert.Equal(t, 40.0, *w.TSS)
		assert.Nil(t, w.IntensityFactor)
	}
	assert.ElementsMatch(t, []string{"run 2025-03-09", "run 2025-03-04"}, names)
	assert.Equal(t, dropped+1, testutil.ToFloat64(observability.RecordsDropped("workouts")))
}

func TestListRecentFollowsPagination(t *testing.T) {
	ctx := context.Background()
	s, pages := newTestStore(t)

	for i := 0; i < 130; i++ {
		_, err := pages.Create(ctx, workoutDB, docstore.Properties{
			PropName: docstore.Title("ride"),
			PropDate: docstore.Date("2025-03-09"),
			PropID:   docstore.Number(float64(i)),
		})
		require.NoError(t, err)
	}

	got, err := s.ListRecent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 130)
}

func TestFillMissingMetrics(t *testing.T) {
	ctx := context.Background()
	s, pages := newTestStore(t)

	_, err := pages.Create(ctx, profileDB, docstore.Properties{
		PropDate:      docstore.Date("2025-01-01"),
		PropMaxHR:     docstore.Number(190),
		PropRestingHR: docstore.Number(60),
	})
	require.NoError(t, err)

	page, err := pages.Create(ctx, workoutDB, docstore.Properties{
		PropName:             docstore.Title("Tempo"),
		PropDate:             docstore.Date("2025-03-09"),
		PropDuration:         docstore.Number(3600),
		PropAverageHeartrate: docstore.Number(150),
		PropMaxHeartrate:     docstore.Number(175),
		PropID:               docstore.Number(99),
	})
	require.NoError(t, err)

	w, err := s.FillMissingMetrics(ctx, page.ID)
	require.NoError(t, err)
	require.NotNil(t, w.IntensityFactor)
	assert.Equal(t, 0.83, *w.IntensityFactor)
	assert.Equal(t, 82.8, *w.TSS)
	assert.Equal(t, DefaultType, w.Type)

	stored, err := pages.Retrieve(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.83, *stored.Properties[PropIF].Number)
	assert.Equal(t, 82.8, *stored.Properties[PropTSS].Number)
	assert.Equal(t, DefaultType, stored.Properties[PropType].PlainText())
	assert.Equal(t, "Tempo", stored.Properties[PropName].PlainText())
}

func TestFillMissingMetricsKeepsExistingValues(t *testing.T) {
	ctx := context.Background()
	s, pages := newTestStore(t)

	page, err := pages.Create(ctx, workoutDB, docstore.Properties{
		PropName: docstore.Title("Intervals"),
		PropDate: docstore.Date("2025-03-09"),
		PropType: docstore.Text("Run"),
		PropTSS:  docstore.Number(95),
		PropIF:   docstore.Number(0.92),
	})
	require.NoError(t, err)
	before := page.LastEditedTime

	w, err := s.FillMissingMetrics(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, 95.0, *w.TSS)
	assert.Equal(t, "Run", w.Type)

	stored, err := pages.Retrieve(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, before, stored.LastEditedTime)
}

func TestFillMissingMetricsNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.FillMissingMetrics(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
