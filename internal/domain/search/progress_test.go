package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgress(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		wantPct float64
	}{
		{name: "start of run", current: 0, total: 8, wantPct: 0},
		{name: "midway", current: 4, total: 8, wantPct: 50},
		{name: "rounds to one decimal", current: 1, total: 3, wantPct: 33.3},
		{name: "rounds up", current: 2, total: 3, wantPct: 66.7},
		{name: "complete", current: 8, total: 8, wantPct: 100},
		{name: "zero total does not divide", current: 0, total: 0, wantPct: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProgress(StatusSearching, tt.current, tt.total, "2025-06-01 -> 2025-06-08 (7 days)", 3)
			assert.InDelta(t, tt.wantPct, p.Percentage, 1e-9)
			assert.Equal(t, tt.current, p.Current)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, 3, p.FlightsFound)
		})
	}
}

func TestUnknownProgress(t *testing.T) {
	p := UnknownProgress()
	assert.Equal(t, StatusPreparing, p.Status)
	assert.Zero(t, p.Current)
	assert.Zero(t, p.Total)
	assert.Empty(t, p.CurrentLabel)
	assert.Zero(t, p.Percentage)
	assert.Nil(t, p.StartedAt)
	assert.Nil(t, p.LastUpdate)
	assert.Nil(t, p.CompletedAt)
}

type stubClock struct{ now time.Time }

func (s *stubClock) Now() time.Time { return s.now }

func TestProgressStamped(t *testing.T) {
	clock := &stubClock{now: time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)}
	tl := NewTimeline(clock)

	p := NewProgress(StatusSearching, 1, 4, "2025-06-01 -> 2025-06-08 (7 days)", 0).Stamped(tl)
	require.NotNil(t, p.StartedAt)
	require.NotNil(t, p.LastUpdate)
	assert.Equal(t, clock.now, *p.StartedAt)
	assert.Equal(t, clock.now, *p.LastUpdate)
	assert.Nil(t, p.CompletedAt, "a running job has no completion time")

	started := clock.now
	clock.now = clock.now.Add(time.Minute)
	tl.MarkCompleted()

	p = NewProgress(StatusCompleted, 4, 4, "Search completed!", 2).Stamped(tl)
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, started, *p.StartedAt)
	assert.Equal(t, clock.now, *p.CompletedAt)
	assert.Equal(t, clock.now, *p.LastUpdate)
}
