// Package planner turns a routed trip into an HOS-compliant stop schedule.
// The segmenter normalizes maps-provider output into ordered legs; the stop
// planner walks those legs with a simulated duty clock and inserts the
// pickup, dropoff, break, rest, and fuel stops the rules require.
package planner

import (
	"context"
	"fmt"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/routing"
)

// Segmenter produces ordered driving legs for a route, delegating path and
// distance computation to the external maps provider.
type Segmenter struct {
	provider routing.Provider
}

// NewSegmenter constructs a Segmenter over the given provider.
func NewSegmenter(p routing.Provider) *Segmenter {
	return &Segmenter{provider: p}
}

// Segment routes origin → waypoints… → destination and returns one leg per
// consecutive point pair. Locations without coordinates are geocoded from
// their address first. Leg distances must be positive so cumulative distance
// is strictly increasing; a provider response violating that is rejected as
// domain.ErrRouteUnavailable.
func (s *Segmenter) Segment(ctx context.Context, origin, destination domain.Location, waypoints []domain.Location) ([]domain.Leg, error) {
	points := make([]domain.Location, 0, len(waypoints)+2)
	points = append(points, origin)
	points = append(points, waypoints...)
	points = append(points, destination)

	for i, p := range points {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("planner.Segmenter.Segment: point %d: %w", i, err)
		}
		if p.Lat == 0 && p.Lng == 0 {
			if p.Address == "" {
				return nil, fmt.Errorf("planner.Segmenter.Segment: point %d: %w: no coordinates or address",
					i, domain.ErrGeocodeUnresolved)
			}
			resolved, err := s.provider.Geocode(ctx, p.Address)
			if err != nil {
				return nil, fmt.Errorf("planner.Segmenter.Segment: %w", err)
			}
			resolved.Name = p.Name
			points[i] = resolved
		}
	}

	segs, err := s.provider.Route(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("planner.Segmenter.Segment: %w", err)
	}

	legs := make([]domain.Leg, len(segs))
	for i, seg := range segs {
		if seg.DistanceMiles <= 0 {
			return nil, fmt.Errorf("planner.Segmenter.Segment: %w: non-increasing distance at leg %d",
				domain.ErrRouteUnavailable, i)
		}
		legs[i] = domain.Leg{
			From:          seg.From,
			To:            seg.To,
			DistanceMiles: seg.DistanceMiles,
			Duration:      seg.Duration,
		}
	}
	return legs, nil
}
