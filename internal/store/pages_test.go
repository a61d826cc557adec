package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/docstore"
	"fitsync/internal/errs"
)

func TestPagesCreateRetrieveUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	pages := s.Pages()

	created, err := pages.Create(ctx, "workouts", docstore.Properties{
		"Name": docstore.Title("Lunch Run"),
		"Id":   docstore.Number(11),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	updated, err := pages.Update(ctx, created.ID, docstore.Properties{"TSS": docstore.Number(42)})
	require.NoError(t, err)
	assert.Equal(t, "Lunch Run", updated.Properties["Name"].PlainText())

	got, err := pages.Retrieve(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Properties["TSS"].Number)
	assert.Equal(t, 42.0, *got.Properties["TSS"].Number)
	assert.Equal(t, 11.0, *got.Properties["Id"].Number)
}

func TestPagesNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Pages().Retrieve(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = s.Pages().Update(ctx, "missing", docstore.Properties{"TSS": docstore.Number(1)})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPagesQuery(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	pages := s.Pages()

	dates := []string{"2025-02-01", "2025-02-20", "2025-02-25", "2025-03-01"}
	for i, d := range dates {
		_, err := pages.Create(ctx, "workouts", docstore.Properties{
			"Id":   docstore.Number(float64(i + 1)),
			"Date": docstore.Date(d),
		})
		require.NoError(t, err)
	}
	_, err := pages.Create(ctx, "profile", docstore.Properties{"Date": docstore.Date("2025-03-01")})
	require.NoError(t, err)

	t.Run("filter by number", func(t *testing.T) {
		id := 3.0
		res, err := pages.Query(ctx, "workouts", docstore.Query{
			Filter:   &docstore.Filter{Property: "Id", Number: &docstore.NumberCondition{Equals: &id}},
			PageSize: 1,
		})
		require.NoError(t, err)
		require.Len(t, res.Results, 1)
		assert.Equal(t, "2025-02-25", res.Results[0].Properties["Date"].Date.Start)
	})

	t.Run("date range with pagination", func(t *testing.T) {
		q := docstore.Query{
			Filter:   &docstore.Filter{Property: "Date", Date: &docstore.DateCondition{OnOrAfter: "2025-02-20"}},
			Sorts:    []docstore.Sort{{Property: "Date", Direction: docstore.Descending}},
			PageSize: 2,
		}
		first, err := pages.Query(ctx, "workouts", q)
		require.NoError(t, err)
		require.Len(t, first.Results, 2)
		assert.True(t, first.HasMore)
		assert.Equal(t, "2025-03-01", first.Results[0].Properties["Date"].Date.Start)

		q.StartCursor = first.NextCursor
		second, err := pages.Query(ctx, "workouts", q)
		require.NoError(t, err)
		require.Len(t, second.Results, 1)
		assert.False(t, second.HasMore)
		assert.Equal(t, "2025-02-20", second.Results[0].Properties["Date"].Date.Start)
	})

	t.Run("bad cursor", func(t *testing.T) {
		_, err := pages.Query(ctx, "workouts", docstore.Query{StartCursor: "nope"})
		assert.Error(t, err)
	})
}
