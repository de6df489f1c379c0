package search

// Default values applied to provider offers whose optional fields are absent.
// Normalization happens once at the provider boundary so evaluation logic can
// rely on every field being populated.
const (
	DefaultAirline    = "Unknown"
	DefaultFieldValue = "N/A"
)

// Offer is a single itinerary option returned by the flight data provider for
// one leg. Offers are read-only once returned; the provider is assumed to
// list them cheapest first.
type Offer struct {
	Airline          string `json:"name"`
	Price            string `json:"price"`
	Duration         string `json:"duration"`
	Stops            string `json:"stops"`
	Departure        string `json:"departure"`
	Arrival          string `json:"arrival"`
	ArrivalTimeAhead string `json:"arrival_time_ahead,omitempty"`
	IsBest           bool   `json:"is_best"`
}

// Normalized returns a copy of the offer with documented defaults substituted
// for any absent optional field.
func (o Offer) Normalized() Offer {
	if o.Airline == "" {
		o.Airline = DefaultAirline
	}
	if o.Price == "" {
		o.Price = DefaultFieldValue
	}
	if o.Duration == "" {
		o.Duration = DefaultFieldValue
	}
	if o.Stops == "" {
		o.Stops = DefaultFieldValue
	}
	if o.Departure == "" {
		o.Departure = DefaultFieldValue
	}
	if o.Arrival == "" {
		o.Arrival = DefaultFieldValue
	}
	return o
}
