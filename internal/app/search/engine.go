package search

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/pkg/common/logger"
	"github.com/farescout/farescout/pkg/common/uuid"
)

// Engine is the public surface of the search subsystem. StartJob accepts a
// search and returns immediately; clients then poll progress and results by
// job ID. One engine serves many concurrent jobs, each running in its own
// goroutine with its own cancelation handle.
type Engine struct {
	orchestrator *Orchestrator
	store        search.JobStore
	metrics      EngineMetrics

	mu     sync.Mutex
	active map[uuid.UUID]context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
	tracer trace.Tracer
}

// NewEngine creates an engine that runs jobs through the given orchestrator.
func NewEngine(
	orchestrator *Orchestrator,
	store search.JobStore,
	metrics EngineMetrics,
	log *logger.Logger,
	tracer trace.Tracer,
) *Engine {
	return &Engine{
		orchestrator: orchestrator,
		store:        store,
		metrics:      metrics,
		active:       make(map[uuid.UUID]context.CancelFunc),
		logger:       log.With("component", "search_engine"),
		tracer:       tracer,
	}
}

// StartJob launches a search job for the given constraints and returns its
// ID without waiting for any candidate to run. Constraint validation happens
// inside the job so its outcome is observable through the same progress and
// result channel as every other failure.
func (e *Engine) StartJob(ctx context.Context, constraints search.Constraints) (uuid.UUID, error) {
	jobID := uuid.New()

	ctx, span := e.tracer.Start(ctx, "search_engine.start_job",
		trace.WithAttributes(attribute.String("job_id", jobID.String())))
	defer span.End()

	job := search.NewJob(jobID, constraints)

	// Write the first snapshot before returning so an immediate poll finds
	// the job rather than an absent-job default.
	first := search.Progress{Status: search.StatusPreparing}.Stamped(job.Timeline())
	if err := e.store.SaveProgress(ctx, jobID, first); err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}

	// The job must outlive the request that started it.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.mu.Lock()
	e.active[jobID] = cancel
	e.mu.Unlock()

	e.metrics.IncJobsStarted(ctx, reportSearchType(constraints))
	e.logger.Info(ctx, "search job accepted", "job_id", jobID)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.release(jobID)
		e.orchestrator.Run(jobCtx, job)
	}()

	return jobID, nil
}

// PollProgress returns the job's latest snapshot. A job the store has no
// record of reports as freshly preparing; callers cannot create jobs by
// polling, so the zero snapshot is informational only.
func (e *Engine) PollProgress(ctx context.Context, jobID uuid.UUID) (search.Progress, error) {
	p, err := e.store.GetProgress(ctx, jobID)
	if err != nil {
		if errors.Is(err, search.ErrNoJobProgress) {
			return search.UnknownProgress(), nil
		}
		return search.Progress{}, err
	}
	return p, nil
}

// PollResult returns the job's terminal report. It returns
// search.ErrNoJobResult while the job is still running or unknown.
func (e *Engine) PollResult(ctx context.Context, jobID uuid.UUID) (search.SearchReport, error) {
	return e.store.GetResult(ctx, jobID)
}

// CancelJob stops a running job. The job ends with a failure report; already
// finished or unknown jobs report false.
func (e *Engine) CancelJob(jobID uuid.UUID) bool {
	e.mu.Lock()
	cancel, ok := e.active[jobID]
	e.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Shutdown cancels every running job and waits for their terminal writes to
// land, or for ctx to expire.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	for _, cancel := range e.active {
		cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) release(jobID uuid.UUID) {
	e.mu.Lock()
	if cancel, ok := e.active[jobID]; ok {
		cancel()
		delete(e.active, jobID)
	}
	e.mu.Unlock()
}
