package search

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format for all dates exchanged with callers and the
// flight data provider.
const DateLayout = "2006-01-02"

// SearchMode identifies which shape of search a caller requested.
type SearchMode string

const (
	// SearchModeFixed searches a single fixed departure (and optionally
	// return) date.
	SearchModeFixed SearchMode = "fixed"

	// SearchModeDateRange sweeps a round-trip search across a date window,
	// testing every anchor/vacation-length combination.
	SearchModeDateRange SearchMode = "date-range"

	// SearchModeMultiCity searches two- or three-leg trips, optionally with
	// flexible dates.
	SearchModeMultiCity SearchMode = "multi-city"
)

// TripType is the trip shape passed to the provider for a query.
type TripType string

const (
	TripRoundTrip TripType = "round-trip"
	TripOneWay    TripType = "one-way"
)

// MultiCityMode selects how multi-city candidates are generated.
type MultiCityMode string

const (
	// MultiCitySpecific fixes leg 1 and leg 3 dates and varies leg 2 inside
	// its flexibility window.
	MultiCitySpecific MultiCityMode = "multi-city-specific"

	// MultiCityRange sweeps the whole trip across a period with a flexible
	// mid-trip day.
	MultiCityRange MultiCityMode = "multi-city-range"

	// MultiCityOpenJaw enumerates two-leg trips where the return leg does
	// not mirror the outbound cities.
	MultiCityOpenJaw MultiCityMode = "multi-city-open-jaw"
)

// Passengers describes the travelling party for every provider query.
type Passengers struct {
	Adults      int `json:"adults" validate:"min=0,max=9"`
	Children    int `json:"children" validate:"min=0,max=9"`
	InfantsSeat int `json:"infants_seat" validate:"min=0,max=9"`
	InfantsLap  int `json:"infants_lap" validate:"min=0,max=9"`
}

// Constraints is the caller's search input. It is immutable once a job
// starts; the engine copies it into the job before launching the background
// task.
type Constraints struct {
	Mode SearchMode `json:"mode" validate:"required,oneof=fixed date-range multi-city"`

	// Fixed and date-range searches.
	FromAirport   string   `json:"from_airport,omitempty" validate:"omitempty,len=3,alpha"`
	ToAirport     string   `json:"to_airport,omitempty" validate:"omitempty,len=3,alpha"`
	TripType      TripType `json:"trip_type,omitempty" validate:"omitempty,oneof=round-trip one-way"`
	DepartureDate string   `json:"departure_date,omitempty"`
	ReturnDate    string   `json:"return_date,omitempty"`

	// Date windows (date-range and multi-city range/open-jaw).
	StartPeriod     string `json:"start_period,omitempty"`
	EndPeriod       string `json:"end_period,omitempty"`
	MinVacationDays int    `json:"min_vacation_days,omitempty" validate:"min=0,max=90"`
	MaxVacationDays int    `json:"max_vacation_days,omitempty" validate:"min=0,max=90"`

	// Multi-city legs.
	MultiCityMode   MultiCityMode `json:"multi_city_mode,omitempty" validate:"omitempty,oneof=multi-city-specific multi-city-range multi-city-open-jaw"`
	Leg1From        string        `json:"leg1_from,omitempty" validate:"omitempty,len=3,alpha"`
	Leg1To          string        `json:"leg1_to,omitempty" validate:"omitempty,len=3,alpha"`
	Leg1Date        string        `json:"leg1_date,omitempty"`
	Leg2From        string        `json:"leg2_from,omitempty" validate:"omitempty,len=3,alpha"`
	Leg2To          string        `json:"leg2_to,omitempty" validate:"omitempty,len=3,alpha"`
	Leg2Date        string        `json:"leg2_date,omitempty"`
	Leg3From        string        `json:"leg3_from,omitempty" validate:"omitempty,len=3,alpha"`
	Leg3To          string        `json:"leg3_to,omitempty" validate:"omitempty,len=3,alpha"`
	Leg3Date        string        `json:"leg3_date,omitempty"`
	Leg2Flexibility int           `json:"leg2_flexibility,omitempty" validate:"min=0,max=7"`
	Leg2TargetDay   int           `json:"leg2_target_day,omitempty" validate:"min=0,max=90"`

	// Shared parameters.
	Passengers Passengers `json:"passengers"`
	SeatClass  string     `json:"seat_class,omitempty" validate:"omitempty,oneof=economy premium-economy business first"`
	// MaxStops limits connections per leg; nil means unrestricted.
	MaxStops *int   `json:"max_stops,omitempty"`
	Currency string `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
}

var validate = validator.New()

// Validate checks field-level constraints and mode-specific date formats.
// Inverted ranges (start after end, max below min) are NOT validation errors;
// per the generation contract they simply produce an empty candidate
// sequence. Malformed dates are input errors and abort the job before any
// candidate is evaluated.
func (c Constraints) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid search constraints: %w", err)
	}

	switch c.Mode {
	case SearchModeFixed:
		if c.FromAirport == "" || c.ToAirport == "" {
			return fmt.Errorf("fixed search requires from_airport and to_airport")
		}
		if err := checkDate("departure_date", c.DepartureDate, true); err != nil {
			return err
		}
		if c.TripType != TripOneWay {
			if err := checkDate("return_date", c.ReturnDate, true); err != nil {
				return err
			}
		}

	case SearchModeDateRange:
		if c.FromAirport == "" || c.ToAirport == "" {
			return fmt.Errorf("date-range search requires from_airport and to_airport")
		}
		if err := checkDate("start_period", c.StartPeriod, true); err != nil {
			return err
		}
		if err := checkDate("end_period", c.EndPeriod, true); err != nil {
			return err
		}

	case SearchModeMultiCity:
		if c.Leg1From == "" || c.Leg1To == "" || c.Leg3From == "" || c.Leg3To == "" {
			return fmt.Errorf("multi-city search requires leg1 and leg3 airports")
		}
		switch c.EffectiveMultiCityMode() {
		case MultiCitySpecific:
			if c.Leg2From == "" || c.Leg2To == "" {
				return fmt.Errorf("multi-city specific search requires leg2 airports")
			}
			for _, d := range []struct{ name, value string }{
				{"leg1_date", c.Leg1Date},
				{"leg2_date", c.Leg2Date},
				{"leg3_date", c.Leg3Date},
			} {
				if err := checkDate(d.name, d.value, true); err != nil {
					return err
				}
			}
		case MultiCityRange:
			if c.Leg2From == "" || c.Leg2To == "" {
				return fmt.Errorf("multi-city range search requires leg2 airports")
			}
			fallthrough
		case MultiCityOpenJaw:
			if err := checkDate("start_period", c.StartPeriod, true); err != nil {
				return err
			}
			if err := checkDate("end_period", c.EndPeriod, true); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unknown search mode %q", c.Mode)
	}

	return nil
}

// EffectiveMultiCityMode resolves the multi-city sub-mode, defaulting to
// range mode when a period is supplied and specific-dates otherwise.
func (c Constraints) EffectiveMultiCityMode() MultiCityMode {
	if c.MultiCityMode != "" {
		return c.MultiCityMode
	}
	if c.StartPeriod != "" && c.EndPeriod != "" {
		return MultiCityRange
	}
	return MultiCitySpecific
}

// EffectiveTripType resolves the trip type for fixed searches, defaulting to
// round-trip.
func (c Constraints) EffectiveTripType() TripType {
	if c.TripType == "" {
		return TripRoundTrip
	}
	return c.TripType
}

// EffectiveCurrency returns the requested currency code or the default.
func (c Constraints) EffectiveCurrency() string {
	if c.Currency == "" {
		return "USD"
	}
	return c.Currency
}

// EffectiveSeatClass returns the requested cabin or the default.
func (c Constraints) EffectiveSeatClass() string {
	if c.SeatClass == "" {
		return "economy"
	}
	return c.SeatClass
}

// EffectivePassengers returns the travelling party, defaulting to one adult.
func (c Constraints) EffectivePassengers() Passengers {
	p := c.Passengers
	if p.Adults == 0 && p.Children == 0 && p.InfantsSeat == 0 && p.InfantsLap == 0 {
		p.Adults = 1
	}
	return p
}

func checkDate(name, value string, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("missing required date field %s", name)
		}
		return nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return fmt.Errorf("invalid date format for %s: %w", name, err)
	}
	return nil
}
