// Package redis provides a Redis-backed job store. Snapshots are stored as
// JSON under per-job keys with a retention TTL, so finished jobs age out
// without a janitor.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/internal/infra/storage"
	"github.com/farescout/farescout/pkg/common/uuid"
)

// DefaultTTL is how long snapshots outlive their last write.
const DefaultTTL = time.Hour

var _ search.JobStore = (*Store)(nil)

// Store implements search.JobStore on a Redis client.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewClient parses redisURL and verifies connectivity.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// NewStore creates a job store on an existing client. A non-positive ttl
// falls back to DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl, tracer: tracer}
}

func progressKey(jobID uuid.UUID) string { return "search:job:" + jobID.String() + ":progress" }
func resultKey(jobID uuid.UUID) string   { return "search:job:" + jobID.String() + ":result" }

func (s *Store) SaveProgress(ctx context.Context, jobID uuid.UUID, p search.Progress) error {
	attrs := []attribute.KeyValue{
		attribute.String("job_id", jobID.String()),
		attribute.String("status", p.Status.String()),
	}
	return storage.ExecuteAndTrace(ctx, s.tracer, "redis.save_progress", attrs, func(ctx context.Context) error {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding progress: %w", err)
		}
		if err := s.client.Set(ctx, progressKey(jobID), payload, s.ttl).Err(); err != nil {
			return fmt.Errorf("writing progress: %w", err)
		}
		return nil
	})
}

func (s *Store) GetProgress(ctx context.Context, jobID uuid.UUID) (search.Progress, error) {
	var p search.Progress
	attrs := []attribute.KeyValue{attribute.String("job_id", jobID.String())}
	err := storage.ExecuteAndTrace(ctx, s.tracer, "redis.get_progress", attrs, func(ctx context.Context) error {
		payload, err := s.client.Get(ctx, progressKey(jobID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return search.ErrNoJobProgress
		}
		if err != nil {
			return fmt.Errorf("reading progress: %w", err)
		}
		return json.Unmarshal(payload, &p)
	})
	if err != nil {
		return search.Progress{}, err
	}
	return p, nil
}

func (s *Store) SaveResult(ctx context.Context, jobID uuid.UUID, report search.SearchReport) error {
	attrs := []attribute.KeyValue{
		attribute.String("job_id", jobID.String()),
		attribute.Int("total_found", report.TotalFound),
	}
	return storage.ExecuteAndTrace(ctx, s.tracer, "redis.save_result", attrs, func(ctx context.Context) error {
		payload, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		if err := s.client.Set(ctx, resultKey(jobID), payload, s.ttl).Err(); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		return nil
	})
}

func (s *Store) GetResult(ctx context.Context, jobID uuid.UUID) (search.SearchReport, error) {
	var report search.SearchReport
	attrs := []attribute.KeyValue{attribute.String("job_id", jobID.String())}
	err := storage.ExecuteAndTrace(ctx, s.tracer, "redis.get_result", attrs, func(ctx context.Context) error {
		payload, err := s.client.Get(ctx, resultKey(jobID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return search.ErrNoJobResult
		}
		if err != nil {
			return fmt.Errorf("reading report: %w", err)
		}
		return json.Unmarshal(payload, &report)
	})
	if err != nil {
		return search.SearchReport{}, err
	}
	return report, nil
}
