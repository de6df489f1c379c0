package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/pkg/common/uuid"
)

func TestStoreProgressRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()
	jobID := uuid.New()

	_, err := store.GetProgress(ctx, jobID)
	assert.ErrorIs(t, err, search.ErrNoJobProgress)

	want := search.NewProgress(search.StatusSearching, 3, 8, "2025-06-01 -> 2025-06-08 (7 days)", 12)
	require.NoError(t, store.SaveProgress(ctx, jobID, want))

	got, err := store.GetProgress(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// A later snapshot fully replaces the earlier one.
	next := search.NewProgress(search.StatusCompleted, 8, 8, "Search completed!", 12)
	require.NoError(t, store.SaveProgress(ctx, jobID, next))
	got, err = store.GetProgress(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

func TestStoreResultRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()
	jobID := uuid.New()

	_, err := store.GetResult(ctx, jobID)
	assert.ErrorIs(t, err, search.ErrNoJobResult)

	want := search.SearchReport{
		Success:                 true,
		TotalFound:              2,
		TotalCombinationsTested: 8,
		SearchType:              "date-range",
		Flights:                 []search.ScoredResult{{Label: "a", Price: "$850"}},
	}
	require.NoError(t, store.SaveResult(ctx, jobID, want))

	got, err := store.GetResult(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStorePurgeOlderThan(t *testing.T) {
	store := New()
	ctx := context.Background()

	stale := uuid.New()
	require.NoError(t, store.SaveProgress(ctx, stale, search.UnknownProgress()))
	store.jobs[stale].updatedAt = time.Now().Add(-2 * time.Hour)

	fresh := uuid.New()
	require.NoError(t, store.SaveProgress(ctx, fresh, search.UnknownProgress()))

	assert.Equal(t, 1, store.PurgeOlderThan(time.Hour))

	_, err := store.GetProgress(ctx, stale)
	assert.ErrorIs(t, err, search.ErrNoJobProgress)
	_, err = store.GetProgress(ctx, fresh)
	assert.NoError(t, err)
}
