// Package postgres provides a PostgreSQL-backed job store, for deployments
// where job history must survive engine restarts.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/internal/infra/storage"
	"github.com/farescout/farescout/pkg/common/uuid"
)

var _ search.JobStore = (*Store)(nil)

var defaultDBAttributes = []attribute.KeyValue{attribute.String("db.system", "postgresql")}

// Store implements search.JobStore on a pgx connection pool. Progress and
// result live in one row per job; each write is a single upsert statement, so
// readers always see a whole snapshot.
type Store struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewStore creates a PostgreSQL-backed job store with tracing.
func NewStore(pool *pgxpool.Pool, tracer trace.Tracer) *Store {
	return &Store{pool: pool, tracer: tracer}
}

func (s *Store) SaveProgress(ctx context.Context, jobID uuid.UUID, p search.Progress) error {
	attrs := append(defaultDBAttributes,
		attribute.String("job_id", jobID.String()),
		attribute.String("status", p.Status.String()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.save_progress", attrs, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO search_jobs (job_id, status, current, total, current_dates, flights_found, percentage, started_at, completed_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::timestamptz, now()))
			ON CONFLICT (job_id) DO UPDATE SET
				status = EXCLUDED.status,
				current = EXCLUDED.current,
				total = EXCLUDED.total,
				current_dates = EXCLUDED.current_dates,
				flights_found = EXCLUDED.flights_found,
				percentage = EXCLUDED.percentage,
				started_at = EXCLUDED.started_at,
				completed_at = EXCLUDED.completed_at,
				updated_at = EXCLUDED.updated_at`,
			pgtype.UUID{Bytes: jobID, Valid: true},
			p.Status.String(), p.Current, p.Total, p.CurrentLabel, p.FlightsFound, p.Percentage,
			p.StartedAt, p.CompletedAt, p.LastUpdate,
		)
		if err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}
		return nil
	})
}

func (s *Store) GetProgress(ctx context.Context, jobID uuid.UUID) (search.Progress, error) {
	var p search.Progress
	attrs := append(defaultDBAttributes, attribute.String("job_id", jobID.String()))
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.get_progress", attrs, func(ctx context.Context) error {
		var status string
		row := s.pool.QueryRow(ctx, `
			SELECT status, current, total, current_dates, flights_found, percentage, started_at, completed_at, updated_at
			FROM search_jobs WHERE job_id = $1`,
			pgtype.UUID{Bytes: jobID, Valid: true},
		)
		err := row.Scan(&status, &p.Current, &p.Total, &p.CurrentLabel, &p.FlightsFound, &p.Percentage,
			&p.StartedAt, &p.CompletedAt, &p.LastUpdate)
		if errors.Is(err, pgx.ErrNoRows) {
			return search.ErrNoJobProgress
		}
		if err != nil {
			return fmt.Errorf("failed to read progress: %w", err)
		}
		p.Status = search.ParseStatus(status)
		return nil
	})
	if err != nil {
		return search.Progress{}, err
	}
	return p, nil
}

func (s *Store) SaveResult(ctx context.Context, jobID uuid.UUID, report search.SearchReport) error {
	attrs := append(defaultDBAttributes,
		attribute.String("job_id", jobID.String()),
		attribute.Int("total_found", report.TotalFound),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.save_result", attrs, func(ctx context.Context) error {
		payload, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO search_jobs (job_id, status, result)
			VALUES ($1, $2, $3)
			ON CONFLICT (job_id) DO UPDATE SET
				result = EXCLUDED.result,
				updated_at = now()`,
			pgtype.UUID{Bytes: jobID, Valid: true},
			search.StatusPreparing.String(), payload,
		)
		if err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		return nil
	})
}

func (s *Store) GetResult(ctx context.Context, jobID uuid.UUID) (search.SearchReport, error) {
	var report search.SearchReport
	attrs := append(defaultDBAttributes, attribute.String("job_id", jobID.String()))
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.get_result", attrs, func(ctx context.Context) error {
		var payload []byte
		row := s.pool.QueryRow(ctx,
			`SELECT result FROM search_jobs WHERE job_id = $1`,
			pgtype.UUID{Bytes: jobID, Valid: true},
		)
		err := row.Scan(&payload)
		if errors.Is(err, pgx.ErrNoRows) {
			return search.ErrNoJobResult
		}
		if err != nil {
			return fmt.Errorf("failed to read report: %w", err)
		}
		if len(payload) == 0 {
			// Row exists from progress writes but the job hasn't finished.
			return search.ErrNoJobResult
		}
		return json.Unmarshal(payload, &report)
	})
	if err != nil {
		return search.SearchReport{}, err
	}
	return report, nil
}

// PurgeOlderThan deletes jobs whose last write is older than maxAge and
// returns the number of rows removed.
func (s *Store) PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	var removed int64
	attrs := append(defaultDBAttributes, attribute.String("max_age", maxAge.String()))
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.purge_jobs", attrs, func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx,
			`DELETE FROM search_jobs WHERE updated_at < now() - $1::interval`,
			fmt.Sprintf("%d seconds", int64(maxAge.Seconds())),
		)
		if err != nil {
			return fmt.Errorf("failed to purge jobs: %w", err)
		}
		removed = tag.RowsAffected()
		return nil
	})
	return removed, err
}
