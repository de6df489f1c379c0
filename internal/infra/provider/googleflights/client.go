// Package googleflights adapts a Google Flights scraping service to the
// engine's flight provider port.
package googleflights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/pkg/common/logger"
)

const (
	defaultTimeout = 90 * time.Second

	retryInitialInterval = 2 * time.Second
	retryMaxElapsed      = 30 * time.Second
)

// Config holds the connection settings for the upstream flights service.
type Config struct {
	// BaseURL is the root of the flights service, e.g. "http://flights-api:8001".
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// Timeout bounds a single Search call end to end, retries included.
	Timeout time.Duration `yaml:"timeout"`
}

// Client performs flight lookups against the upstream service. It implements
// search.FlightProvider.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	httpc   *http.Client

	logger *logger.Logger
	tracer trace.Tracer
}

// NewClient creates a provider client from config.
func NewClient(cfg Config, log *logger.Logger, tracer trace.Tracer) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: timeout,
		httpc:   &http.Client{},
		logger:  log.With("component", "googleflights_client"),
		tracer:  tracer,
	}
}

// searchRequest is the wire payload sent to the flights service.
type searchRequest struct {
	Trip       string            `json:"trip"`
	Legs       []legPayload      `json:"legs"`
	Passengers search.Passengers `json:"passengers"`
	Seat       string            `json:"seat"`
	Currency   string            `json:"currency"`
	MaxStops   *int              `json:"max_stops,omitempty"`
}

type legPayload struct {
	From string `json:"from_airport"`
	To   string `json:"to_airport"`
	Date string `json:"date"`
}

// searchResponse mirrors the service's result document. Stops arrive as a
// connection count and are rendered to display form here, at the boundary.
type searchResponse struct {
	CurrentPrice string `json:"current_price"`
	Flights      []struct {
		Name             string `json:"name"`
		Price            string `json:"price"`
		Duration         string `json:"duration"`
		Stops            int    `json:"stops"`
		Departure        string `json:"departure"`
		Arrival          string `json:"arrival"`
		ArrivalTimeAhead string `json:"arrival_time_ahead"`
		IsBest           bool   `json:"is_best"`
	} `json:"flights"`
}

// Search issues one lookup, retrying transient upstream failures with
// exponential backoff until the call's deadline expires.
func (c *Client) Search(ctx context.Context, query search.ProviderQuery) (search.ProviderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "googleflights.search",
		trace.WithAttributes(
			attribute.String("trip_type", string(query.TripType)),
			attribute.Int("legs", len(query.Legs)),
		),
	)
	defer span.End()

	body, err := json.Marshal(buildRequest(query))
	if err != nil {
		return search.ProviderResult{}, fmt.Errorf("encoding search request: %w", err)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = retryInitialInterval
	expBackoff.MaxElapsedTime = retryMaxElapsed

	var resp searchResponse
	operation := func() error {
		var opErr error
		resp, opErr = c.doSearch(ctx, body)
		return opErr
	}
	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "flight search failed")
		return search.ProviderResult{}, fmt.Errorf("flight search failed: %w", err)
	}

	result := search.ProviderResult{
		PriceLevel: resp.CurrentPrice,
		Offers:     make([]search.Offer, 0, len(resp.Flights)),
	}
	for _, f := range resp.Flights {
		result.Offers = append(result.Offers, search.Offer{
			Airline:          f.Name,
			Price:            f.Price,
			Duration:         f.Duration,
			Stops:            search.NormalizeStops(f.Stops),
			Departure:        f.Departure,
			Arrival:          f.Arrival,
			ArrivalTimeAhead: f.ArrivalTimeAhead,
			IsBest:           f.IsBest,
		}.Normalized())
	}

	span.SetAttributes(attribute.Int("offers", len(result.Offers)))
	return result, nil
}

func (c *Client) doSearch(ctx context.Context, body []byte) (searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return searchResponse{}, backoff.Permanent(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "flights service request failed, will retry", "error", err)
		return searchResponse{}, fmt.Errorf("calling flights service: %w", err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return searchResponse{}, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case httpResp.StatusCode >= 500 || httpResp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn(ctx, "flights service returned retryable status", "status", httpResp.StatusCode)
		return searchResponse{}, fmt.Errorf("flights service returned %d", httpResp.StatusCode)
	case httpResp.StatusCode != http.StatusOK:
		// Client errors will not improve on retry.
		return searchResponse{}, backoff.Permanent(fmt.Errorf("flights service returned %d: %s", httpResp.StatusCode, payload))
	}

	var resp searchResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return searchResponse{}, backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return resp, nil
}

func buildRequest(query search.ProviderQuery) searchRequest {
	legs := make([]legPayload, len(query.Legs))
	for i, l := range query.Legs {
		legs[i] = legPayload{From: l.From, To: l.To, Date: l.DateString()}
	}
	return searchRequest{
		Trip:       string(query.TripType),
		Legs:       legs,
		Passengers: query.Passengers,
		Seat:       query.SeatClass,
		Currency:   query.Currency,
		MaxStops:   query.MaxStops,
	}
}
