package search

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// priceDigits matches the first run of digits, commas, and decimal points in
// a provider price representation (e.g. "$1,234", "ILS 2,430").
var priceDigits = regexp.MustCompile(`[\d.,]+`)

// ParsePrice extracts a comparable numeric value from a provider price
// representation. It returns false when the input contains no parseable
// digit sequence. Callers that need a strict total (summing leg prices)
// must drop combinations where any leg fails to parse, since a partial sum
// would be meaningless.
func ParsePrice(raw string) (float64, bool) {
	match := priceDigits.FindString(raw)
	if match == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// PriceSortValue maps a price representation to a sort key. Unparsable
// prices return +Inf so fully-formed results with a cosmetic price issue
// still appear in ranked output, just after every parsable entry.
func PriceSortValue(raw string) float64 {
	if v, ok := ParsePrice(raw); ok {
		return v
	}
	return math.Inf(1)
}
