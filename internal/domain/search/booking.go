package search

import (
	"fmt"
	"net/url"
	"strings"
)

const bookingBaseURL = "https://www.google.com/travel/flights"

// BookingURL builds a deep link to a flight search for the candidate's legs.
// The link pre-fills the route and dates; it does not pin a specific offer.
func BookingURL(c Candidate) string {
	parts := make([]string, 0, len(c.Legs))
	for _, leg := range c.Legs {
		parts = append(parts, fmt.Sprintf("%s to %s on %s", leg.From, leg.To, leg.DateString()))
	}
	q := url.Values{}
	q.Set("q", strings.Join(parts, ", "))
	return bookingBaseURL + "?" + q.Encode()
}
