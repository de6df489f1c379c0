package search

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EngineMetrics defines the metrics operations recorded by the search engine.
type EngineMetrics interface {
	// Job metrics
	IncJobsStarted(ctx context.Context, mode string)
	IncJobsCompleted(ctx context.Context, mode string)
	IncJobsFailed(ctx context.Context, mode string)
	SetActiveJobs(ctx context.Context, delta int)

	// Candidate metrics
	IncCandidatesEvaluated(ctx context.Context)
	IncCandidateErrors(ctx context.Context)
	ObserveCandidateDuration(ctx context.Context, d time.Duration)
	ObserveResultsFound(ctx context.Context, count int)
}

// engineMetrics implements EngineMetrics.
type engineMetrics struct {
	jobsStarted   metric.Int64Counter
	jobsCompleted metric.Int64Counter
	jobsFailed    metric.Int64Counter
	activeJobs    metric.Int64UpDownCounter

	candidatesEvaluated metric.Int64Counter
	candidateErrors     metric.Int64Counter
	candidateDuration   metric.Float64Histogram
	resultsFound        metric.Int64Histogram
}

const namespace = "search_engine"

// NewEngineMetrics creates a new engine metrics instance.
func NewEngineMetrics(mp metric.MeterProvider) (*engineMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(engineMetrics)
	var err error

	if m.jobsStarted, err = meter.Int64Counter(
		"jobs_started_total",
		metric.WithDescription("Total number of search jobs started"),
	); err != nil {
		return nil, err
	}

	if m.jobsCompleted, err = meter.Int64Counter(
		"jobs_completed_total",
		metric.WithDescription("Total number of search jobs completed"),
	); err != nil {
		return nil, err
	}

	if m.jobsFailed, err = meter.Int64Counter(
		"jobs_failed_total",
		metric.WithDescription("Total number of search jobs that failed before evaluating candidates"),
	); err != nil {
		return nil, err
	}

	if m.activeJobs, err = meter.Int64UpDownCounter(
		"active_jobs",
		metric.WithDescription("Number of search jobs currently running"),
	); err != nil {
		return nil, err
	}

	if m.candidatesEvaluated, err = meter.Int64Counter(
		"candidates_evaluated_total",
		metric.WithDescription("Total number of candidates evaluated across all jobs"),
	); err != nil {
		return nil, err
	}

	if m.candidateErrors, err = meter.Int64Counter(
		"candidate_errors_total",
		metric.WithDescription("Total number of candidates whose evaluation failed"),
	); err != nil {
		return nil, err
	}

	if m.candidateDuration, err = meter.Float64Histogram(
		"candidate_duration_seconds",
		metric.WithDescription("Time taken to evaluate a single candidate"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.resultsFound, err = meter.Int64Histogram(
		"results_found",
		metric.WithDescription("Number of ranked results produced per job"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *engineMetrics) IncJobsStarted(ctx context.Context, mode string) {
	m.jobsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

func (m *engineMetrics) IncJobsCompleted(ctx context.Context, mode string) {
	m.jobsCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

func (m *engineMetrics) IncJobsFailed(ctx context.Context, mode string) {
	m.jobsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

func (m *engineMetrics) SetActiveJobs(ctx context.Context, delta int) {
	m.activeJobs.Add(ctx, int64(delta))
}

func (m *engineMetrics) IncCandidatesEvaluated(ctx context.Context) {
	m.candidatesEvaluated.Add(ctx, 1)
}

func (m *engineMetrics) IncCandidateErrors(ctx context.Context) {
	m.candidateErrors.Add(ctx, 1)
}

func (m *engineMetrics) ObserveCandidateDuration(ctx context.Context, d time.Duration) {
	m.candidateDuration.Record(ctx, d.Seconds())
}

func (m *engineMetrics) ObserveResultsFound(ctx context.Context, count int) {
	m.resultsFound.Record(ctx, int64(count))
}
