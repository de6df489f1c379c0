package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTripDetails(t *testing.T) {
	ret := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)

	t.Run("splits times, dates and carriers per direction", func(t *testing.T) {
		s := ParseRoundTripDetails(Offer{
			Airline:   "El Al, Delta",
			Stops:     "1 stop",
			Departure: "7:00 AM on Tue, Dec 30",
			Arrival:   "4:30 PM on Wed, Dec 31",
		}, ret)
		assert.Equal(t, "El Al", s.OutboundAirline)
		assert.Equal(t, "Delta", s.ReturnAirline)
		assert.Equal(t, "7:00 AM", s.DepartureTime)
		assert.Equal(t, "Tue, Dec 30", s.DepartureDate)
		assert.Equal(t, "4:30 PM", s.ArrivalTime)
		assert.Equal(t, "Wed, Dec 31", s.ArrivalDate)
		require.NotNil(t, s.OutboundStops)
		assert.Equal(t, 1, *s.OutboundStops)
		assert.Equal(t, "Dec 31", s.ReturnDate)
	})

	t.Run("single carrier serves both directions", func(t *testing.T) {
		s := ParseRoundTripDetails(Offer{Airline: "El Al", Departure: "N/A", Arrival: "11:05 PM"}, ret)
		assert.Equal(t, "El Al", s.OutboundAirline)
		assert.Equal(t, "El Al", s.ReturnAirline)
		assert.Equal(t, "N/A", s.DepartureTime)
		assert.Empty(t, s.DepartureDate)
		assert.Equal(t, "11:05 PM", s.ArrivalTime)
		assert.Empty(t, s.ArrivalDate)
	})

	t.Run("return-leg fields the offer cannot describe stay placeholders", func(t *testing.T) {
		s := ParseRoundTripDetails(Offer{Airline: "Delta", Stops: "N/A"}, ret)
		assert.Equal(t, NotAvailable, s.ReturnDeparture)
		assert.Equal(t, NotAvailable, s.ReturnArrival)
		assert.Equal(t, NotAvailable, s.ReturnDuration)
		assert.Equal(t, NotAvailable, s.ReturnStops)
		assert.Nil(t, s.OutboundStops)
	})
}

func TestStopsCount(t *testing.T) {
	tests := []struct {
		raw   string
		count int
		ok    bool
	}{
		{raw: "Nonstop", count: 0, ok: true},
		{raw: "Direct", count: 0, ok: true},
		{raw: "1 stop", count: 1, ok: true},
		{raw: "2 stops", count: 2, ok: true},
		{raw: "stopover", count: 1, ok: true},
		{raw: "N/A", count: 0, ok: false},
		{raw: "", count: 0, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			n, ok := StopsCount(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.count, n)
		})
	}
}

func TestNormalizeStops(t *testing.T) {
	assert.Equal(t, "Nonstop", NormalizeStops(0))
	assert.Equal(t, "1 stop", NormalizeStops(1))
	assert.Equal(t, "2 stops", NormalizeStops(2))
}

func TestShortDate(t *testing.T) {
	d := time.Date(2025, time.December, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Dec 03", ShortDate(d))
}

func TestRankResults(t *testing.T) {
	t.Run("orders by ascending raw price", func(t *testing.T) {
		results := []ScoredResult{
			{Label: "a", Price: "$1,900"},
			{Label: "b", Price: "$850"},
			{Label: "c", Price: "$1,200"},
		}
		RankResults(results)
		assert.Equal(t, []string{"b", "c", "a"},
			[]string{results[0].Label, results[1].Label, results[2].Label})
	})

	t.Run("unparsable prices sink to the bottom, keeping discovery order", func(t *testing.T) {
		results := []ScoredResult{
			{Label: "a", Price: "N/A"},
			{Label: "b", Price: "$700"},
			{Label: "c", Price: "Price unavailable"},
		}
		RankResults(results)
		assert.Equal(t, []string{"b", "a", "c"},
			[]string{results[0].Label, results[1].Label, results[2].Label})
	})

	t.Run("numeric totals rank against each other", func(t *testing.T) {
		results := []ScoredResult{
			{Label: "a", TotalPrice: 2200},
			{Label: "b", TotalPrice: 1800},
		}
		RankResults(results)
		assert.Equal(t, "b", results[0].Label)
	})
}

func TestBookingURL(t *testing.T) {
	c := Candidate{
		Legs: []LegSpec{
			{From: "TLV", To: "JFK", Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
			{From: "JFK", To: "TLV", Date: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)},
		},
	}
	u := BookingURL(c)
	assert.Contains(t, u, "google.com/travel/flights")
	assert.Contains(t, u, "TLV+to+JFK+on+2025-06-01")
}

func TestCandidateLabel(t *testing.T) {
	c := Candidate{
		Legs: []LegSpec{
			{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
			{Date: time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)},
		},
		VacationDays: 7,
	}
	assert.Equal(t, "2025-01-01 -> 2025-01-08 (7 days)", c.Label())

	c.VacationDays = 0
	assert.Equal(t, "2025-01-01 -> 2025-01-08", c.Label())
}
