package search

import (
	"github.com/farescout/farescout/pkg/common/uuid"
)

// Job is one asynchronous run of the search engine over a full candidate
// space. Exactly one orchestrator owns a job for its whole lifetime; pollers
// only ever see the snapshots it writes to the job store.
type Job struct {
	id          uuid.UUID
	constraints Constraints
	status      Status
	timeline    *Timeline
}

// NewJob creates a job in the preparing state. The constraints are copied in
// and treated as immutable from this point on.
func NewJob(id uuid.UUID, constraints Constraints) *Job {
	return &Job{
		id:          id,
		constraints: constraints,
		status:      StatusPreparing,
		timeline:    NewTimeline(new(realTimeProvider)),
	}
}

// ID returns the unique identifier for this search job.
func (j *Job) ID() uuid.UUID { return j.id }

// Constraints returns the caller input this job was started with.
func (j *Job) Constraints() Constraints { return j.constraints }

// Status returns the current lifecycle status of the job.
func (j *Job) Status() Status { return j.status }

// Timeline provides access to the job's timeline information.
func (j *Job) Timeline() *Timeline { return j.timeline }

// UpdateStatus changes the job's status after validating the transition.
func (j *Job) UpdateStatus(newStatus Status) error {
	if err := j.status.ValidateTransition(newStatus); err != nil {
		return err
	}

	if newStatus == StatusCompleted {
		j.timeline.MarkCompleted()
	} else {
		j.timeline.UpdateLastUpdate()
	}

	j.status = newStatus
	return nil
}

// Fail marks the job as terminally failed before any candidate ran. This is
// only reachable from constraint validation; per-candidate failures go
// through UpdateStatus and keep the job alive.
func (j *Job) Fail() {
	j.status = StatusError
	j.timeline.MarkCompleted()
}
