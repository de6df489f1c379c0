package search

import (
	"context"
	"errors"

	"github.com/farescout/farescout/pkg/common/uuid"
)

// ErrNoJobProgress signals the store has no progress snapshot for a job ID.
var ErrNoJobProgress = errors.New("no progress for search job")

// ErrNoJobResult signals the store has no terminal result for a job ID.
var ErrNoJobResult = errors.New("no result for search job")

// ProviderQuery is a single flight lookup: one or two legs searched together
// as one itinerary, plus the traveller parameters shared by the whole job.
type ProviderQuery struct {
	Legs       []LegSpec
	TripType   TripType
	Passengers Passengers
	SeatClass  string
	Currency   string
	MaxStops   *int
}

// ProviderResult carries the offers the provider returned for one query,
// ordered as the provider ranked them.
type ProviderResult struct {
	Offers     []Offer
	PriceLevel string
}

// FlightProvider performs live lookups against a flight data source. Search
// blocks until the provider responds or ctx is done; implementations own
// their retry and timeout policy.
type FlightProvider interface {
	Search(ctx context.Context, query ProviderQuery) (ProviderResult, error)
}

// JobStore persists the per-job progress snapshots and terminal results that
// polling clients read. Implementations must make SaveProgress atomic per
// job: a reader sees either the previous snapshot or the new one, never a
// blend.
type JobStore interface {
	SaveProgress(ctx context.Context, jobID uuid.UUID, p Progress) error
	GetProgress(ctx context.Context, jobID uuid.UUID) (Progress, error)
	SaveResult(ctx context.Context, jobID uuid.UUID, report SearchReport) error
	GetResult(ctx context.Context, jobID uuid.UUID) (SearchReport, error)
}
