package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/middleware"
)

const (
	orsBaseURL = "https://api.openrouteservice.org"

	// Heavy-goods-vehicle profile: truck routing, not car routing.
	orsProfile = "driving-hgv"

	metersPerMile = 1609.344
)

// ORSClient is a Provider backed by the OpenRouteService HTTP API.
// Geocode and route responses are cached in-process for cacheTTL since the
// free tier is rate limited.
type ORSClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *cache
}

// NewORSClient builds an OpenRouteService client with the given API key.
func NewORSClient(apiKey string) *ORSClient {
	return &ORSClient{
		apiKey:     apiKey,
		baseURL:    orsBaseURL,
		httpClient: &http.Client{Timeout: CallTimeout},
		cache:      newCache(24 * time.Hour),
	}
}

// geocodeResponse is the subset of the ORS geocode search payload we read.
type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lng, lat]
		} `json:"geometry"`
		Properties struct {
			Label string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// directionsResponse is the subset of the ORS directions payload we read.
// Segments come back one per consecutive coordinate pair, distance in
// meters and duration in seconds.
type directionsResponse struct {
	Routes []struct {
		Segments []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"segments"`
	} `json:"routes"`
}

// Geocode resolves a location string via GET /geocode/search.
func (c *ORSClient) Geocode(ctx context.Context, query string) (domain.Location, error) {
	key := "geocode:" + query
	if v, ok := c.cache.get(key); ok {
		middleware.TrackRoutingCall("geocode", "ok", true, 0)
		return v.(domain.Location), nil
	}

	u := fmt.Sprintf("%s/geocode/search?api_key=%s&text=%s&size=1",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(query))

	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Location{}, fmt.Errorf("routing.ORSClient.Geocode: %w", err)
	}

	start := time.Now()
	var body geocodeResponse
	if err := c.do(req, &body); err != nil {
		middleware.TrackRoutingCall("geocode", "error", false, time.Since(start))
		return domain.Location{}, fmt.Errorf("routing.ORSClient.Geocode: %w: %w", domain.ErrGeocodeUnresolved, err)
	}
	middleware.TrackRoutingCall("geocode", "ok", false, time.Since(start))
	if len(body.Features) == 0 || len(body.Features[0].Geometry.Coordinates) < 2 {
		return domain.Location{}, fmt.Errorf("routing.ORSClient.Geocode: %w: no match for %q", domain.ErrGeocodeUnresolved, query)
	}

	f := body.Features[0]
	loc := domain.Location{
		Lat:     f.Geometry.Coordinates[1],
		Lng:     f.Geometry.Coordinates[0],
		Address: f.Properties.Label,
	}
	c.cache.set(key, loc)
	return loc, nil
}

// Route computes driving segments via POST /v2/directions/{profile}.
func (c *ORSClient) Route(ctx context.Context, points []domain.Location) ([]Segment, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("routing.ORSClient.Route: %w: need at least two points", domain.ErrValidation)
	}

	coords := make([][2]float64, len(points))
	for i, p := range points {
		coords[i] = [2]float64{p.Lng, p.Lat}
	}
	payload, err := json.Marshal(map[string]any{"coordinates": coords})
	if err != nil {
		return nil, fmt.Errorf("routing.ORSClient.Route: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, orsProfile)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("routing.ORSClient.Route: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	start := time.Now()
	var body directionsResponse
	if err := c.do(req, &body); err != nil {
		middleware.TrackRoutingCall("route", "error", false, time.Since(start))
		return nil, fmt.Errorf("routing.ORSClient.Route: %w: %w", domain.ErrRouteUnavailable, err)
	}
	middleware.TrackRoutingCall("route", "ok", false, time.Since(start))
	if len(body.Routes) == 0 || len(body.Routes[0].Segments) != len(points)-1 {
		return nil, fmt.Errorf("routing.ORSClient.Route: %w: no route between points", domain.ErrRouteUnavailable)
	}

	segs := make([]Segment, len(points)-1)
	for i, s := range body.Routes[0].Segments {
		segs[i] = Segment{
			From:          points[i],
			To:            points[i+1],
			DistanceMiles: s.Distance / metersPerMile,
			Duration:      time.Duration(s.Duration * float64(time.Second)),
		}
	}
	return segs, nil
}

// do executes the request and decodes a 2xx JSON response into out.
// Context deadline errors are surfaced unchanged so callers can map
// timeouts distinctly from other upstream failures.
func (c *ORSClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return context.DeadlineExceeded
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
