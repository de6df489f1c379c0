package search

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LegDetail is the per-leg view of a multi-city combination as returned to
// clients. All display fields are pre-formatted strings so the transport
// layer never re-derives them.
type LegDetail struct {
	Leg      int    `json:"leg"`
	Route    string `json:"route"`
	Date     string `json:"date"`
	Airline  string `json:"airline"`
	Price    string `json:"price"`
	Duration string `json:"duration"`
	Stops    string `json:"stops"`
}

// NotAvailable fills round-trip return-leg fields the provider cannot
// report; offers only describe the outbound segment.
const NotAvailable = "Not available"

// TripSummary holds the outbound/return breakdown of a round-trip offer.
// Offers report times as "7:00 AM on Tue, Dec 30" and may carry a combined
// carrier name like "El Al, Delta"; the summary splits both per direction.
type TripSummary struct {
	OutboundAirline string `json:"outbound_airline"`
	DepartureTime   string `json:"departure_time"`
	DepartureDate   string `json:"departure_date"`
	ArrivalTime     string `json:"arrival_time"`
	ArrivalDate     string `json:"arrival_date"`
	OutboundStops   *int   `json:"outbound_stops,omitempty"`

	ReturnAirline   string `json:"return_airline"`
	ReturnDate      string `json:"return_date"`
	ReturnDeparture string `json:"return_departure_time"`
	ReturnArrival   string `json:"return_arrival_time"`
	ReturnDuration  string `json:"return_duration"`
	ReturnStops     string `json:"return_stops"`
}

// ParseRoundTripDetails breaks a round-trip offer into its per-direction
// view. Departure and arrival strings without the " on " separator keep the
// whole value in the time field and leave the date empty. The provider holds
// no return-leg times, so those fields are placeholders.
func ParseRoundTripDetails(offer Offer, returnDate time.Time) TripSummary {
	var s TripSummary
	s.OutboundAirline, s.ReturnAirline = SplitAirlines(offer.Airline)
	s.DepartureTime, s.DepartureDate = splitOn(offer.Departure)
	s.ArrivalTime, s.ArrivalDate = splitOn(offer.Arrival)
	if n, ok := StopsCount(offer.Stops); ok {
		s.OutboundStops = &n
	}
	s.ReturnDate = ShortDate(returnDate)
	s.ReturnDeparture = NotAvailable
	s.ReturnArrival = NotAvailable
	s.ReturnDuration = NotAvailable
	s.ReturnStops = NotAvailable
	return s
}

// SplitAirlines separates a combined carrier name into outbound and return
// carriers. A single carrier serves both directions.
func SplitAirlines(name string) (outbound, ret string) {
	parts := strings.Split(name, ",")
	outbound = strings.TrimSpace(parts[0])
	ret = outbound
	if len(parts) > 1 {
		ret = strings.TrimSpace(parts[1])
	}
	return outbound, ret
}

// StopsCount converts provider stops text to a count. "Nonstop" and "Direct"
// count as zero; otherwise the first number in the text wins, and bare "stop"
// text counts as one. Text naming no stops reports false.
func StopsCount(raw string) (int, bool) {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "nonstop") || strings.Contains(lower, "direct") {
		return 0, true
	}
	if !strings.Contains(lower, "stop") {
		return 0, false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			continue
		}
		j := i
		for j < len(raw) && raw[j] >= '0' && raw[j] <= '9' {
			j++
		}
		if n, err := strconv.Atoi(raw[i:j]); err == nil {
			return n, true
		}
		break
	}
	return 1, true
}

func splitOn(raw string) (timePart, datePart string) {
	if idx := strings.Index(raw, " on "); idx >= 0 {
		return raw[:idx], raw[idx+len(" on "):]
	}
	return raw, ""
}

// NormalizeStops renders a stop count for display, with zero shown as
// "Nonstop".
func NormalizeStops(stops int) string {
	if stops == 0 {
		return "Nonstop"
	}
	if stops == 1 {
		return "1 stop"
	}
	return fmt.Sprintf("%d stops", stops)
}

// ShortDate formats a leg date the way leg details present it, e.g. "Dec 30".
func ShortDate(t time.Time) string { return t.Format("Jan 02") }

// ScoredResult is one ranked combination in a job's final result set.
// Round-trip and date-range results carry the provider's raw price string;
// multi-city results carry a numeric total summed over legs. Exactly one of
// the two is populated.
type ScoredResult struct {
	// Round-trip / date-range fields.
	Label        string `json:"dates,omitempty"`
	VacationDays int    `json:"vacation_days,omitempty"`
	Price        string `json:"price,omitempty"`
	Airline      string `json:"airline,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Stops        string `json:"stops,omitempty"`

	Departure string       `json:"departure,omitempty"`
	Arrival   string       `json:"arrival,omitempty"`
	Details   *TripSummary `json:"details,omitempty"`

	// Per-offer annotations within one candidate. Rank counts from the
	// cheapest offer; options count the provider's full list before the
	// cutoff.
	CombinationRank    int  `json:"combination_rank,omitempty"`
	CombinationOptions int  `json:"total_options_in_combination,omitempty"`
	IsBest             bool `json:"is_best,omitempty"`

	// Multi-city fields.
	TotalPrice float64     `json:"total_price,omitempty"`
	Legs       []LegDetail `json:"legs,omitempty"`

	BookingURL string `json:"booking_url,omitempty"`
}

// sortKey is the value results are ranked by, ascending. Raw price strings
// that fail to parse sort last rather than dropping the result.
func (r ScoredResult) sortKey() float64 {
	if r.Price != "" {
		return PriceSortValue(r.Price)
	}
	return r.TotalPrice
}

// RankResults orders results by ascending price. The sort is stable so
// results with equal or unparsable prices keep their discovery order.
func RankResults(results []ScoredResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].sortKey() < results[j].sortKey()
	})
}

// SearchReport is the terminal payload a job stores once its run ends, for
// both success and failure outcomes.
type SearchReport struct {
	Success                 bool           `json:"success"`
	Error                   string         `json:"error,omitempty"`
	Flights                 []ScoredResult `json:"flights,omitempty"`
	TotalFound              int            `json:"total_found"`
	TotalCombinationsTested int            `json:"total_combinations_tested"`
	SearchType              string         `json:"search_type,omitempty"`
	Currency                string         `json:"currency,omitempty"`
	PriceLevel              string         `json:"price_level,omitempty"`
}

// NewFailureReport builds the terminal payload for a job that never produced
// results.
func NewFailureReport(err error) SearchReport {
	return SearchReport{Success: false, Error: err.Error()}
}
