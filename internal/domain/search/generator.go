package search

import (
	"fmt"
	"time"
)

// Candidate generation strides. Date-range mode steps anchors by three days
// to keep the candidate space (and therefore provider call volume) bounded;
// multi-city modes step start dates one day at a time.
const (
	dateRangeAnchorStride = 3
	multiCityStartStride  = 1
)

// Default vacation-length bounds applied when the caller leaves them unset.
const (
	defaultMinVacationDays = 7
	defaultMaxVacationDays = 21
	defaultLeg2TargetDay   = 8
)

// GenerateCandidates turns validated constraints into a finite, deterministic,
// ordered sequence of candidates. It performs no I/O. An empty (or inverted)
// window yields an empty, non-error sequence so the orchestrator can complete
// the job immediately with zero results.
func GenerateCandidates(c Constraints) ([]Candidate, error) {
	switch c.Mode {
	case SearchModeFixed:
		return generateFixed(c)
	case SearchModeDateRange:
		return generateDateRange(c)
	case SearchModeMultiCity:
		switch c.EffectiveMultiCityMode() {
		case MultiCitySpecific:
			return generateMultiCitySpecific(c)
		case MultiCityRange:
			return generateMultiCityRange(c)
		case MultiCityOpenJaw:
			return generateOpenJaw(c)
		}
	}
	return nil, fmt.Errorf("unknown search mode %q", c.Mode)
}

func generateFixed(c Constraints) ([]Candidate, error) {
	dep, err := time.Parse(DateLayout, c.DepartureDate)
	if err != nil {
		return nil, fmt.Errorf("parsing departure_date: %w", err)
	}

	if c.EffectiveTripType() == TripOneWay {
		return []Candidate{{
			TripType: TripOneWay,
			Legs:     []LegSpec{{From: c.FromAirport, To: c.ToAirport, Date: dep}},
		}}, nil
	}

	ret, err := time.Parse(DateLayout, c.ReturnDate)
	if err != nil {
		return nil, fmt.Errorf("parsing return_date: %w", err)
	}
	return []Candidate{{
		TripType: TripRoundTrip,
		Legs: []LegSpec{
			{From: c.FromAirport, To: c.ToAirport, Date: dep},
			{From: c.ToAirport, To: c.FromAirport, Date: ret},
		},
	}}, nil
}

func generateDateRange(c Constraints) ([]Candidate, error) {
	start, end, err := parsePeriod(c)
	if err != nil {
		return nil, err
	}

	minDays, maxDays := vacationBounds(c, 0)

	var candidates []Candidate
	for anchor := start; !anchor.After(end); anchor = anchor.AddDate(0, 0, dateRangeAnchorStride) {
		for days := minDays; days <= maxDays; days++ {
			ret := anchor.AddDate(0, 0, days)
			if ret.After(end) {
				continue
			}
			candidates = append(candidates, Candidate{
				TripType: TripRoundTrip,
				Legs: []LegSpec{
					{From: c.FromAirport, To: c.ToAirport, Date: anchor},
					{From: c.ToAirport, To: c.FromAirport, Date: ret},
				},
				VacationDays: days,
			})
		}
	}
	return candidates, nil
}

func generateMultiCitySpecific(c Constraints) ([]Candidate, error) {
	leg1, err := time.Parse(DateLayout, c.Leg1Date)
	if err != nil {
		return nil, fmt.Errorf("parsing leg1_date: %w", err)
	}
	leg2, err := time.Parse(DateLayout, c.Leg2Date)
	if err != nil {
		return nil, fmt.Errorf("parsing leg2_date: %w", err)
	}
	leg3, err := time.Parse(DateLayout, c.Leg3Date)
	if err != nil {
		return nil, fmt.Errorf("parsing leg3_date: %w", err)
	}

	flex := c.Leg2Flexibility
	if flex < 0 {
		flex = 0
	}

	var candidates []Candidate
	for offset := -flex; offset <= flex; offset++ {
		candidates = append(candidates, Candidate{
			TripType: TripOneWay,
			Legs: []LegSpec{
				{From: c.Leg1From, To: c.Leg1To, Date: leg1},
				{From: c.Leg2From, To: c.Leg2To, Date: leg2.AddDate(0, 0, offset)},
				{From: c.Leg3From, To: c.Leg3To, Date: leg3},
			},
		})
	}
	return candidates, nil
}

func generateMultiCityRange(c Constraints) ([]Candidate, error) {
	start, end, err := parsePeriod(c)
	if err != nil {
		return nil, err
	}

	minDays, maxDays := vacationBounds(c, 3)

	targetDay := c.Leg2TargetDay
	if targetDay == 0 {
		targetDay = defaultLeg2TargetDay
	}
	if targetDay < 2 {
		targetDay = 2
	}
	flex := c.Leg2Flexibility
	if flex < 0 {
		flex = 0
	}

	var candidates []Candidate
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, multiCityStartStride) {
		for totalDays := minDays; totalDays <= maxDays; totalDays++ {
			ret := cur.AddDate(0, 0, totalDays)
			if ret.After(end) {
				continue
			}

			for offset := -flex; offset <= flex; offset++ {
				midDay := targetDay + offset
				// A mid-trip day outside (1, totalDays) would put the
				// middle leg on or before the arrival day, or on/after the
				// return day. Invalid midpoints are skipped, not counted.
				if midDay < 2 || midDay >= totalDays {
					continue
				}
				mid := cur.AddDate(0, 0, midDay-1)
				if !mid.Before(ret) {
					continue
				}

				candidates = append(candidates, Candidate{
					TripType: TripOneWay,
					Legs: []LegSpec{
						{From: c.Leg1From, To: c.Leg1To, Date: cur},
						{From: c.Leg2From, To: c.Leg2To, Date: mid},
						{From: c.Leg3From, To: c.Leg3To, Date: ret},
					},
					TotalDays:  totalDays,
					MidTripDay: midDay,
				})
			}
		}
	}
	return candidates, nil
}

func generateOpenJaw(c Constraints) ([]Candidate, error) {
	start, end, err := parsePeriod(c)
	if err != nil {
		return nil, err
	}

	minDays, maxDays := vacationBounds(c, 2)

	var candidates []Candidate
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, multiCityStartStride) {
		for totalDays := minDays; totalDays <= maxDays; totalDays++ {
			// The period bounds the outbound date only; the return leg may
			// land past the window end.
			candidates = append(candidates, Candidate{
				TripType: TripOneWay,
				Legs: []LegSpec{
					{From: c.Leg1From, To: c.Leg1To, Date: cur},
					{From: c.Leg3From, To: c.Leg3To, Date: cur.AddDate(0, 0, totalDays)},
				},
				TotalDays: totalDays,
			})
		}
	}
	return candidates, nil
}

func parsePeriod(c Constraints) (start, end time.Time, err error) {
	start, err = time.Parse(DateLayout, c.StartPeriod)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing start_period: %w", err)
	}
	end, err = time.Parse(DateLayout, c.EndPeriod)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing end_period: %w", err)
	}
	return start, end, nil
}

// vacationBounds resolves the vacation-length window, applying defaults for
// unset values and the per-mode floor. The floor keeps multi-city trips long
// enough to hold a middle leg (range mode) or a distinct return day (open
// jaw).
func vacationBounds(c Constraints, floor int) (minDays, maxDays int) {
	minDays = c.MinVacationDays
	if minDays == 0 {
		minDays = defaultMinVacationDays
	}
	if minDays < floor {
		minDays = floor
	}

	maxDays = c.MaxVacationDays
	if maxDays == 0 {
		maxDays = defaultMaxVacationDays
	}
	if floor > 0 && maxDays < minDays {
		// Range and open-jaw modes clamp the upper bound instead of
		// producing an empty window.
		maxDays = minDays
	}
	return minDays, maxDays
}
