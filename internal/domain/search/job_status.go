package search

import "fmt"

// Status represents the current state of a search job as seen by pollers.
// The values are wire-stable; they appear verbatim in progress snapshots.
type Status string

const (
	// StatusPreparing indicates a job has been accepted but has not started
	// iterating candidates yet.
	StatusPreparing Status = "preparing"

	// StatusSearching indicates a candidate is currently being evaluated.
	StatusSearching Status = "searching"

	// StatusFoundFlights indicates the most recent candidate contributed at
	// least one result to the accumulator.
	StatusFoundFlights Status = "found_flights"

	// StatusError indicates a failure. Mid-run it annotates a single failed
	// candidate and the job keeps going; before the first candidate it marks
	// the job as terminally failed (constraint validation).
	StatusError Status = "error"

	// StatusCompleted indicates the job finished and its ranked results are
	// available.
	StatusCompleted Status = "completed"
)

func (s Status) String() string { return string(s) }

// ParseStatus converts a wire string to a Status.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPreparing, StatusSearching, StatusFoundFlights, StatusError, StatusCompleted:
		return Status(s)
	default:
		return "" // represents unspecified
	}
}

// ValidateTransition checks if a status transition is valid and returns an
// error if not.
func (s Status) ValidateTransition(target Status) error {
	if !s.isValidTransition(target) {
		return fmt.Errorf("invalid job status transition from %s to %s", s, target)
	}
	return nil
}

// isValidTransition enforces the job lifecycle. A per-candidate error is not
// terminal: the loop continues, so error can transition back into searching.
// Completed is the only terminal status; a job that fails validation reaches
// error from preparing and is simply never advanced again.
func (s Status) isValidTransition(target Status) bool {
	switch s {
	case StatusPreparing:
		return target == StatusSearching || target == StatusCompleted || target == StatusError
	case StatusSearching, StatusFoundFlights, StatusError:
		return target == StatusSearching || target == StatusFoundFlights ||
			target == StatusError || target == StatusCompleted
	case StatusCompleted:
		return false
	default:
		return false
	}
}
