package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/internal/infra/storage"
	"github.com/farescout/farescout/pkg/common/uuid"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	pool, cleanup := storage.SetupTestContainer(t)
	t.Cleanup(cleanup)
	return NewStore(pool, storage.NoOpTracer())
}

func TestStoreProgressRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	jobID := uuid.New()

	_, err := store.GetProgress(ctx, jobID)
	assert.ErrorIs(t, err, search.ErrNoJobProgress)

	started := time.Now().UTC().Truncate(time.Microsecond)
	updated := started.Add(30 * time.Second)
	want := search.NewProgress(search.StatusSearching, 3, 8, "2025-06-01 -> 2025-06-08 (7 days)", 12)
	want.StartedAt, want.LastUpdate = &started, &updated
	require.NoError(t, store.SaveProgress(ctx, jobID, want))

	got, err := store.GetProgress(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Current, got.Current)
	assert.Equal(t, want.Total, got.Total)
	assert.Equal(t, want.CurrentLabel, got.CurrentLabel)
	assert.Equal(t, want.FlightsFound, got.FlightsFound)
	assert.InDelta(t, want.Percentage, got.Percentage, 1e-9)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.LastUpdate)
	assert.True(t, got.StartedAt.Equal(started))
	assert.True(t, got.LastUpdate.Equal(updated))
	assert.Nil(t, got.CompletedAt, "a running job has no completion time")

	// Upsert replaces the previous snapshot.
	completed := updated.Add(time.Minute)
	next := search.NewProgress(search.StatusCompleted, 8, 8, "Search completed!", 12)
	next.StartedAt, next.LastUpdate, next.CompletedAt = &started, &completed, &completed
	require.NoError(t, store.SaveProgress(ctx, jobID, next))
	got, err = store.GetProgress(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, search.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(completed))
}

func TestStoreProgressWithoutTimestamps(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	jobID := uuid.New()

	require.NoError(t, store.SaveProgress(ctx, jobID, search.UnknownProgress()))
	got, err := store.GetProgress(ctx, jobID)
	require.NoError(t, err)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)
	require.NotNil(t, got.LastUpdate, "the write time stands in when the caller carries none")
}

func TestStoreResultRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	jobID := uuid.New()

	_, err := store.GetResult(ctx, jobID)
	assert.ErrorIs(t, err, search.ErrNoJobResult)

	// A row created by progress writes still has no result.
	require.NoError(t, store.SaveProgress(ctx, jobID, search.UnknownProgress()))
	_, err = store.GetResult(ctx, jobID)
	assert.ErrorIs(t, err, search.ErrNoJobResult)

	want := search.SearchReport{
		Success:                 true,
		TotalFound:              2,
		TotalCombinationsTested: 8,
		SearchType:              "date-range",
		Currency:                "USD",
		PriceLevel:              "low",
		Flights: []search.ScoredResult{
			{Label: "2025-06-01 -> 2025-06-08 (7 days)", VacationDays: 7, Price: "$850", Airline: "El Al"},
			{Label: "2025-06-04 -> 2025-06-11 (7 days)", VacationDays: 7, Price: "$920", Airline: "Delta"},
		},
	}
	require.NoError(t, store.SaveResult(ctx, jobID, want))

	got, err := store.GetResult(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStorePurgeOlderThan(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	jobID := uuid.New()
	require.NoError(t, store.SaveProgress(ctx, jobID, search.UnknownProgress()))

	removed, err := store.PurgeOlderThan(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed, "fresh jobs must survive the purge")

	removed, err = store.PurgeOlderThan(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = store.GetProgress(ctx, jobID)
	assert.ErrorIs(t, err, search.ErrNoJobProgress)
}
