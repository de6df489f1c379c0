package search

import (
	"fmt"
	"strings"
	"time"
)

// LegSpec is one directional origin->destination flight on one date.
type LegSpec struct {
	From string
	To   string
	Date time.Time
}

// DateString returns the leg date in wire format.
func (l LegSpec) DateString() string { return l.Date.Format(DateLayout) }

// Candidate is one concrete date/leg combination to evaluate. Candidates are
// produced once by the generator and consumed once by the evaluator; they are
// never mutated.
type Candidate struct {
	// TripType is the provider trip shape: round-trip candidates query both
	// legs in a single provider call, one-way candidates query each leg
	// independently.
	TripType TripType

	Legs []LegSpec

	// VacationDays annotates date-range candidates with the trip length.
	VacationDays int

	// TotalDays and MidTripDay annotate multi-city range candidates.
	TotalDays  int
	MidTripDay int
}

// Label renders the human-readable description shown to pollers while the
// candidate is in flight, e.g. "2025-01-01 -> 2025-01-08 (7 days)".
func (c Candidate) Label() string {
	dates := make([]string, len(c.Legs))
	for i, leg := range c.Legs {
		dates[i] = leg.DateString()
	}
	label := strings.Join(dates, " -> ")
	if c.VacationDays > 0 {
		label = fmt.Sprintf("%s (%d days)", label, c.VacationDays)
	}
	return label
}
