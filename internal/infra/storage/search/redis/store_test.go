package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/internal/infra/storage"
	"github.com/farescout/farescout/pkg/common/uuid"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: fmt.Sprintf("localhost:%s", port.Port())})
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client, time.Minute, storage.NoOpTracer())
}

func TestStoreProgressRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	jobID := uuid.New()

	_, err := store.GetProgress(ctx, jobID)
	assert.ErrorIs(t, err, search.ErrNoJobProgress)

	want := search.NewProgress(search.StatusFoundFlights, 5, 8, "2025-06-10 -> 2025-06-17 (7 days)", 23)
	require.NoError(t, store.SaveProgress(ctx, jobID, want))

	got, err := store.GetProgress(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStoreResultRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	jobID := uuid.New()

	_, err := store.GetResult(ctx, jobID)
	assert.ErrorIs(t, err, search.ErrNoJobResult)

	want := search.SearchReport{
		Success:                 true,
		TotalFound:              1,
		TotalCombinationsTested: 4,
		SearchType:              "multi-city-specific",
		Currency:                "USD",
		Flights: []search.ScoredResult{{
			Label:      "2025-11-01 -> 2025-11-08 -> 2025-11-20",
			TotalPrice: 1330,
			Legs: []search.LegDetail{
				{Leg: 1, Route: "TLV -> BKK", Date: "Nov 01", Airline: "El Al", Price: "$600"},
			},
		}},
	}
	require.NoError(t, store.SaveResult(ctx, jobID, want))

	got, err := store.GetResult(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStoreKeysExpire(t *testing.T) {
	store := setupStore(t)
	store.ttl = 50 * time.Millisecond
	ctx := context.Background()
	jobID := uuid.New()

	require.NoError(t, store.SaveProgress(ctx, jobID, search.UnknownProgress()))
	require.Eventually(t, func() bool {
		_, err := store.GetProgress(ctx, jobID)
		return err != nil
	}, 5*time.Second, 20*time.Millisecond, "snapshots must age out after their TTL")
}
