package search

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/pkg/common/logger"
)

// Offer cut-offs per candidate. Round-trip candidates keep the ten cheapest
// itineraries; multi-leg candidates keep five offers per leg before the cross
// product, which bounds a three-leg candidate at 125 combinations.
const (
	topOffersRoundTrip = 10
	topOffersPerLeg    = 5
)

// CandidateEvaluator turns one candidate into its ranked-result rows by
// querying the flight provider.
type CandidateEvaluator interface {
	Evaluate(ctx context.Context, constraints search.Constraints, cand search.Candidate) ([]search.ScoredResult, string, error)
}

type evaluator struct {
	provider search.FlightProvider

	logger *logger.Logger
	tracer trace.Tracer
}

// NewEvaluator returns a CandidateEvaluator backed by the given provider.
func NewEvaluator(provider search.FlightProvider, log *logger.Logger, tracer trace.Tracer) *evaluator {
	return &evaluator{
		provider: provider,
		logger:   log.With("component", "candidate_evaluator"),
		tracer:   tracer,
	}
}

// Evaluate queries the provider for the candidate's legs and converts the
// offers into scored results. Round-trip candidates issue a single two-leg
// query; one-way candidates query each leg independently and combine them.
// The second return value is the provider's price-level assessment, when it
// reports one.
func (e *evaluator) Evaluate(
	ctx context.Context,
	constraints search.Constraints,
	cand search.Candidate,
) ([]search.ScoredResult, string, error) {
	ctx, span := e.tracer.Start(ctx, "candidate_evaluator.evaluate",
		trace.WithAttributes(
			attribute.String("trip_type", string(cand.TripType)),
			attribute.String("candidate", cand.Label()),
			attribute.Int("legs", len(cand.Legs)),
		),
	)
	defer span.End()

	var (
		results    []search.ScoredResult
		priceLevel string
		err        error
	)
	if cand.TripType == search.TripRoundTrip {
		results, priceLevel, err = e.evaluateRoundTrip(ctx, constraints, cand)
	} else {
		results, priceLevel, err = e.evaluatePerLeg(ctx, constraints, cand)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "candidate evaluation failed")
		return nil, "", err
	}

	span.SetAttributes(attribute.Int("results", len(results)))
	return results, priceLevel, nil
}

func (e *evaluator) evaluateRoundTrip(
	ctx context.Context,
	constraints search.Constraints,
	cand search.Candidate,
) ([]search.ScoredResult, string, error) {
	res, err := e.provider.Search(ctx, providerQuery(constraints, cand.TripType, cand.Legs))
	if err != nil {
		return nil, "", fmt.Errorf("searching %s: %w", cand.Label(), err)
	}

	offers := res.Offers
	if len(offers) > topOffersRoundTrip {
		offers = offers[:topOffersRoundTrip]
	}

	bookingURL := search.BookingURL(cand)
	returnDate := cand.Legs[len(cand.Legs)-1].Date
	results := make([]search.ScoredResult, 0, len(offers))
	for idx, raw := range offers {
		offer := raw.Normalized()
		details := search.ParseRoundTripDetails(offer, returnDate)
		results = append(results, search.ScoredResult{
			Label:        cand.Label(),
			VacationDays: cand.VacationDays,
			Price:        offer.Price,
			Airline:      offer.Airline,
			Duration:     offer.Duration,
			Stops:        offer.Stops,
			Departure:    offer.Departure,
			Arrival:      offer.Arrival,
			Details:      &details,

			CombinationRank:    idx + 1,
			CombinationOptions: len(res.Offers),
			IsBest:             offer.IsBest,

			BookingURL: bookingURL,
		})
	}
	return results, res.PriceLevel, nil
}

// evaluatePerLeg queries each leg on its own and combines the per-leg offers
// into full itineraries. A combination's total price requires every leg's
// price to parse; combinations with an unparsable leg are dropped rather
// than ranked on a partial sum.
func (e *evaluator) evaluatePerLeg(
	ctx context.Context,
	constraints search.Constraints,
	cand search.Candidate,
) ([]search.ScoredResult, string, error) {
	perLeg := make([][]search.Offer, len(cand.Legs))
	var priceLevel string
	for i, leg := range cand.Legs {
		res, err := e.provider.Search(ctx, providerQuery(constraints, search.TripOneWay, []search.LegSpec{leg}))
		if err != nil {
			return nil, "", fmt.Errorf("searching leg %d (%s %s): %w", i+1, leg.From, leg.DateString(), err)
		}
		if priceLevel == "" {
			priceLevel = res.PriceLevel
		}

		offers := res.Offers
		if len(offers) > topOffersPerLeg {
			offers = offers[:topOffersPerLeg]
		}
		if len(offers) == 0 {
			// One empty leg empties the whole cross product.
			e.logger.Debug(ctx, "leg returned no offers, skipping candidate",
				"leg", i+1, "from", leg.From, "to", leg.To, "date", leg.DateString())
			return nil, priceLevel, nil
		}
		for j, o := range offers {
			offers[j] = o.Normalized()
		}
		perLeg[i] = offers
	}

	bookingURL := search.BookingURL(cand)
	var results []search.ScoredResult
	forEachCombination(perLeg, func(combo []search.Offer) {
		total := 0.0
		for _, o := range combo {
			v, ok := search.ParsePrice(o.Price)
			if !ok {
				return
			}
			total += v
		}

		legs := make([]search.LegDetail, len(combo))
		for i, o := range combo {
			legs[i] = search.LegDetail{
				Leg:      i + 1,
				Route:    fmt.Sprintf("%s -> %s", cand.Legs[i].From, cand.Legs[i].To),
				Date:     search.ShortDate(cand.Legs[i].Date),
				Airline:  o.Airline,
				Price:    o.Price,
				Duration: o.Duration,
				Stops:    o.Stops,
			}
		}
		results = append(results, search.ScoredResult{
			Label:        cand.Label(),
			VacationDays: cand.TotalDays,
			TotalPrice:   total,
			Legs:         legs,
			BookingURL:   bookingURL,
		})
	})
	return results, priceLevel, nil
}

// forEachCombination walks the cross product of per-leg offers in first-leg
// major order, matching the order the offers arrive in.
func forEachCombination(perLeg [][]search.Offer, fn func(combo []search.Offer)) {
	idx := make([]int, len(perLeg))
	combo := make([]search.Offer, len(perLeg))
	for {
		for i, j := range idx {
			combo[i] = perLeg[i][j]
		}
		fn(combo)

		pos := len(idx) - 1
		for ; pos >= 0; pos-- {
			idx[pos]++
			if idx[pos] < len(perLeg[pos]) {
				break
			}
			idx[pos] = 0
		}
		if pos < 0 {
			return
		}
	}
}

func providerQuery(c search.Constraints, tripType search.TripType, legs []search.LegSpec) search.ProviderQuery {
	return search.ProviderQuery{
		Legs:       legs,
		TripType:   tripType,
		Passengers: c.EffectivePassengers(),
		SeatClass:  c.EffectiveSeatClass(),
		Currency:   c.EffectiveCurrency(),
		MaxStops:   c.MaxStops,
	}
}
