// Package memory provides an in-process job store, used in tests and
// single-node deployments that don't need snapshots to survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/pkg/common/uuid"
)

var _ search.JobStore = (*Store)(nil)

type jobRecord struct {
	progress  search.Progress
	result    *search.SearchReport
	updatedAt time.Time
}

// Store keeps job snapshots in a map guarded by a mutex. Each save replaces
// the whole snapshot, so readers never observe a partial write.
type Store struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*jobRecord
}

// New creates an empty in-memory job store.
func New() *Store {
	return &Store{jobs: make(map[uuid.UUID]*jobRecord)}
}

func (s *Store) SaveProgress(_ context.Context, jobID uuid.UUID, p search.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.jobs[jobID]
	if rec == nil {
		rec = &jobRecord{}
		s.jobs[jobID] = rec
	}
	rec.progress = p
	rec.updatedAt = time.Now()
	return nil
}

func (s *Store) GetProgress(_ context.Context, jobID uuid.UUID) (search.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return search.Progress{}, search.ErrNoJobProgress
	}
	return rec.progress, nil
}

func (s *Store) SaveResult(_ context.Context, jobID uuid.UUID, report search.SearchReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.jobs[jobID]
	if rec == nil {
		rec = &jobRecord{}
		s.jobs[jobID] = rec
	}
	rec.result = &report
	rec.updatedAt = time.Now()
	return nil
}

func (s *Store) GetResult(_ context.Context, jobID uuid.UUID) (search.SearchReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	if !ok || rec.result == nil {
		return search.SearchReport{}, search.ErrNoJobResult
	}
	return *rec.result, nil
}

// PurgeOlderThan drops jobs whose last write is older than maxAge and
// returns how many were removed. Callers run it on a ticker.
func (s *Store) PurgeOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int
	for id, rec := range s.jobs {
		if rec.updatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}
