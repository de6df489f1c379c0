package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/pkg/common/logger"
	"github.com/farescout/farescout/pkg/common/uuid"
)

func testEngine(provider search.FlightProvider, store search.JobStore, t *testing.T) *Engine {
	t.Helper()
	metrics := testMetrics(t)
	return NewEngine(
		testOrchestrator(provider, store, t),
		store,
		metrics,
		logger.Noop(),
		noop.NewTracerProvider().Tracer("test"),
	)
}

func TestEngineStartJob(t *testing.T) {
	provider := &stubProvider{respond: func(search.ProviderQuery) (search.ProviderResult, error) {
		return search.ProviderResult{Offers: []search.Offer{offer("El Al", "$850")}}, nil
	}}
	store := newMemStore()
	engine := testEngine(provider, store, t)

	jobID, err := engine.StartJob(context.Background(), fixedRoundTripConstraints())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, jobID)

	// The accepting write lands before StartJob returns.
	p, err := engine.PollProgress(context.Background(), jobID)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Status)

	require.Eventually(t, func() bool {
		p, err := engine.PollProgress(context.Background(), jobID)
		return err == nil && p.Status == search.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	report, err := engine.PollResult(context.Background(), jobID)
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.TotalFound)
}

func TestEnginePollUnknownJob(t *testing.T) {
	engine := testEngine(&stubProvider{}, newMemStore(), t)

	p, err := engine.PollProgress(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, search.UnknownProgress(), p, "absent jobs read as freshly preparing")

	_, err = engine.PollResult(context.Background(), uuid.New())
	assert.ErrorIs(t, err, search.ErrNoJobResult)
}

func TestEngineCancelJob(t *testing.T) {
	release := make(chan struct{})
	provider := &stubProvider{respond: func(search.ProviderQuery) (search.ProviderResult, error) {
		<-release
		return search.ProviderResult{}, context.Canceled
	}}
	store := newMemStore()
	engine := testEngine(provider, store, t)

	jobID, err := engine.StartJob(context.Background(), fixedRoundTripConstraints())
	require.NoError(t, err)

	assert.True(t, engine.CancelJob(jobID))
	close(release)

	require.Eventually(t, func() bool {
		_, err := engine.PollResult(context.Background(), jobID)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	report, err := engine.PollResult(context.Background(), jobID)
	require.NoError(t, err)
	assert.False(t, report.Success)

	assert.Eventually(t, func() bool { return !engine.CancelJob(jobID) },
		time.Second, 10*time.Millisecond, "finished jobs are no longer cancelable")
}

func TestEngineShutdown(t *testing.T) {
	provider := &stubProvider{respond: func(search.ProviderQuery) (search.ProviderResult, error) {
		return search.ProviderResult{}, nil
	}}
	engine := testEngine(provider, newMemStore(), t)

	_, err := engine.StartJob(context.Background(), fixedRoundTripConstraints())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, engine.Shutdown(ctx))
}
