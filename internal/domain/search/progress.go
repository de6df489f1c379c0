package search

import (
	"math"
	"time"
)

// Progress is the point-in-time snapshot a job publishes after each candidate.
// It is the unit of storage for polling clients and carries everything the
// progress endpoint returns.
type Progress struct {
	Status       Status  `json:"status"`
	Current      int     `json:"current"`
	Total        int     `json:"total"`
	CurrentLabel string  `json:"current_dates"`
	FlightsFound int     `json:"flights_found"`
	Percentage   float64 `json:"percentage"`

	// Timeline timestamps, stamped by the job that owns the snapshot.
	// Snapshots for jobs the store never saw carry none.
	StartedAt   *time.Time `json:"started_at,omitempty"`
	LastUpdate  *time.Time `json:"last_update,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Stamped returns a copy of the snapshot carrying the timeline's timestamps,
// so pollers can see when the job started and last moved.
func (p Progress) Stamped(tl *Timeline) Progress {
	started, updated := tl.StartedAt(), tl.LastUpdate()
	p.StartedAt, p.LastUpdate = &started, &updated
	if tl.IsCompleted() {
		done := tl.CompletedAt()
		p.CompletedAt = &done
	}
	return p
}

// NewProgress builds a snapshot with the percentage derived from the
// current/total counters, rounded to one decimal place. A zero total yields
// zero percent rather than a division error.
func NewProgress(status Status, current, total int, label string, flightsFound int) Progress {
	var pct float64
	if total > 0 {
		pct = math.Round(float64(current)/float64(total)*1000) / 10
	}
	return Progress{
		Status:       status,
		Current:      current,
		Total:        total,
		CurrentLabel: label,
		FlightsFound: flightsFound,
		Percentage:   pct,
	}
}

// UnknownProgress is the snapshot reported for a job the store has no record
// of. Callers cannot distinguish a job that never existed from one that has
// not yet written its first snapshot, so both look like a fresh start.
func UnknownProgress() Progress {
	return Progress{Status: StatusPreparing}
}
