package search

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/pkg/common"
	"github.com/farescout/farescout/pkg/common/logger"
)

// Progress labels shown to pollers outside the per-candidate loop.
const (
	labelInitializing = "Initializing..."
	labelCompleted    = "Search completed!"
)

// Orchestrator drives one search job from constraint validation through the
// candidate loop to the terminal report. It owns all writes to the job store
// for its job; pollers only ever read.
type Orchestrator struct {
	evaluator CandidateEvaluator
	store     search.JobStore
	limiter   *common.RateLimiter
	metrics   EngineMetrics

	logger *logger.Logger
	tracer trace.Tracer
}

// NewOrchestrator assembles an orchestrator from its collaborators.
func NewOrchestrator(
	evaluator CandidateEvaluator,
	store search.JobStore,
	limiter *common.RateLimiter,
	metrics EngineMetrics,
	log *logger.Logger,
	tracer trace.Tracer,
) *Orchestrator {
	return &Orchestrator{
		evaluator: evaluator,
		store:     store,
		limiter:   limiter,
		metrics:   metrics,
		logger:    log.With("component", "search_orchestrator"),
		tracer:    tracer,
	}
}

// Run executes the job to completion. It never returns an error: every
// failure mode ends with a terminal report and snapshot in the store, which
// is the only channel the caller observes the job through.
func (o *Orchestrator) Run(ctx context.Context, job *search.Job) {
	log := o.logger.With("job_id", job.ID())
	constraints := job.Constraints()
	mode := reportSearchType(constraints)

	ctx, span := o.tracer.Start(ctx, "search_orchestrator.run",
		trace.WithAttributes(
			attribute.String("job_id", job.ID().String()),
			attribute.String("search_type", mode),
		),
	)
	defer span.End()

	o.metrics.SetActiveJobs(ctx, 1)
	defer o.metrics.SetActiveJobs(ctx, -1)

	if err := constraints.Validate(); err != nil {
		log.Error(ctx, "search constraints rejected", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid constraints")
		o.fail(ctx, job, mode, err)
		return
	}

	candidates, err := search.GenerateCandidates(constraints)
	if err != nil {
		log.Error(ctx, "candidate generation failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "candidate generation failed")
		o.fail(ctx, job, mode, err)
		return
	}

	total := len(candidates)
	span.SetAttributes(attribute.Int("total_candidates", total))
	log.Info(ctx, "search job starting", "search_type", mode, "total_candidates", total)

	o.saveProgress(ctx, job, search.NewProgress(job.Status(), 0, total, labelInitializing, 0))

	var (
		flights    []search.ScoredResult
		priceLevel string
	)
	for i, cand := range candidates {
		if err := o.limiter.Wait(ctx); err != nil {
			o.fail(ctx, job, mode, err)
			return
		}

		o.transition(ctx, job, search.StatusSearching)
		// The snapshot counts the candidate being worked on, so a poller
		// mid-evaluation reads "1 of N", not "0 of N".
		o.saveProgress(ctx, job, search.NewProgress(search.StatusSearching, i+1, total, cand.Label(), len(flights)))

		started := time.Now()
		results, level, err := o.evaluator.Evaluate(ctx, constraints, cand)
		o.metrics.ObserveCandidateDuration(ctx, time.Since(started))
		o.metrics.IncCandidatesEvaluated(ctx)

		if err != nil {
			if ctx.Err() != nil {
				o.fail(ctx, job, mode, ctx.Err())
				return
			}
			// A single failed candidate does not sink the job.
			o.metrics.IncCandidateErrors(ctx)
			log.Warn(ctx, "candidate evaluation failed", "candidate", cand.Label(), "error", err)
			o.transition(ctx, job, search.StatusError)
			o.saveProgress(ctx, job, search.NewProgress(search.StatusError, i+1, total, cand.Label(), len(flights)))
			continue
		}

		if level != "" {
			priceLevel = level
		}
		if len(results) > 0 {
			flights = append(flights, results...)
			o.transition(ctx, job, search.StatusFoundFlights)
			o.saveProgress(ctx, job, search.NewProgress(search.StatusFoundFlights, i+1, total, cand.Label(), len(flights)))
		} else {
			o.saveProgress(ctx, job, search.NewProgress(search.StatusSearching, i+1, total, cand.Label(), len(flights)))
		}
	}

	search.RankResults(flights)

	report := search.SearchReport{
		Success:                 true,
		Flights:                 flights,
		TotalFound:              len(flights),
		TotalCombinationsTested: total,
		SearchType:              mode,
		Currency:                constraints.EffectiveCurrency(),
		PriceLevel:              priceLevel,
	}
	if err := o.store.SaveResult(ctx, job.ID(), report); err != nil {
		log.Error(ctx, "failed to persist search report", "error", err)
	}

	o.transition(ctx, job, search.StatusCompleted)
	o.saveProgress(ctx, job, search.NewProgress(search.StatusCompleted, total, total, labelCompleted, len(flights)))

	o.metrics.IncJobsCompleted(ctx, mode)
	o.metrics.ObserveResultsFound(ctx, len(flights))
	log.Info(ctx, "search job completed", "total_found", len(flights), "candidates_tested", total)
}

// fail ends the job before or during the candidate loop with a terminal
// failure report.
func (o *Orchestrator) fail(ctx context.Context, job *search.Job, mode string, cause error) {
	// A canceled request context must not block the final writes.
	ctx = context.WithoutCancel(ctx)

	job.Fail()
	if err := o.store.SaveResult(ctx, job.ID(), search.NewFailureReport(cause)); err != nil {
		o.logger.Error(ctx, "failed to persist failure report", "job_id", job.ID(), "error", err)
	}
	o.saveProgress(ctx, job, search.Progress{Status: search.StatusError, CurrentLabel: cause.Error()})
	o.metrics.IncJobsFailed(ctx, mode)
}

func (o *Orchestrator) transition(ctx context.Context, job *search.Job, target search.Status) {
	if job.Status() == target {
		job.Timeline().UpdateLastUpdate()
		return
	}
	if err := job.UpdateStatus(target); err != nil {
		o.logger.Error(ctx, "unexpected status transition", "job_id", job.ID(), "error", err)
	}
}

func (o *Orchestrator) saveProgress(ctx context.Context, job *search.Job, p search.Progress) {
	if err := o.store.SaveProgress(ctx, job.ID(), p.Stamped(job.Timeline())); err != nil {
		// Pollers will see a stale snapshot until the next write lands.
		o.logger.Warn(ctx, "failed to persist progress snapshot", "job_id", job.ID(), "error", err)
	}
}

// reportSearchType is the wire value reported in progress and result
// payloads; multi-city jobs report their resolved sub-mode.
func reportSearchType(c search.Constraints) string {
	if c.Mode == search.SearchModeMultiCity {
		return string(c.EffectiveMultiCityMode())
	}
	return string(c.Mode)
}
