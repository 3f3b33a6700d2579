// Package routing talks to the external maps provider. It resolves location
// strings to coordinates and computes driving paths between points; the
// planner package consumes its output through the Provider interface and
// never sees provider wire formats.
package routing

import (
	"context"
	"time"

	"github.com/freighthos/eld-engine/internal/domain"
)

// CallTimeout bounds every provider round trip. A timed-out call surfaces as
// domain.ErrRouteUnavailable to the caller; retries are the caller's concern.
const CallTimeout = 10 * time.Second

// Segment is one leg of a provider route between two requested points.
type Segment struct {
	From          domain.Location
	To            domain.Location
	DistanceMiles float64
	Duration      time.Duration
}

// Provider is the external maps collaborator.
//
// Geocode resolves a free-form location string to coordinates and returns
// domain.ErrGeocodeUnresolved when nothing matches. Route returns one
// segment per consecutive point pair, in order, and
// domain.ErrRouteUnavailable when no path exists or the call times out.
type Provider interface {
	Geocode(ctx context.Context, query string) (domain.Location, error)
	Route(ctx context.Context, points []domain.Location) ([]Segment, error)
}
