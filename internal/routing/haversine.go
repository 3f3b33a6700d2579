package routing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/freighthos/eld-engine/internal/domain"
)

// earthRadiusMiles matches the constant the ELD client's estimates were
// calibrated against.
const earthRadiusMiles = 3956

// HaversineProvider estimates routes as great-circle distances driven at a
// fixed average speed. It is the offline fallback when no ORS API key is
// configured and the provider used by deterministic tests; it cannot
// geocode free-form strings, only pass through coordinates.
type HaversineProvider struct {
	// AverageSpeedMPH converts distance to driving time. Default 60.
	AverageSpeedMPH float64
}

// NewHaversineProvider returns an estimator at the given average speed
// (60 mph when speed <= 0).
func NewHaversineProvider(speed float64) *HaversineProvider {
	if speed <= 0 {
		speed = 60
	}
	return &HaversineProvider{AverageSpeedMPH: speed}
}

// Geocode cannot resolve address strings offline.
func (p *HaversineProvider) Geocode(ctx context.Context, query string) (domain.Location, error) {
	return domain.Location{}, fmt.Errorf("routing.HaversineProvider.Geocode: %w: offline provider cannot resolve %q",
		domain.ErrGeocodeUnresolved, query)
}

// Route returns one straight-line segment per consecutive point pair.
func (p *HaversineProvider) Route(ctx context.Context, points []domain.Location) ([]Segment, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("routing.HaversineProvider.Route: %w: need at least two points", domain.ErrValidation)
	}

	segs := make([]Segment, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		miles := HaversineMiles(points[i], points[i+1])
		segs = append(segs, Segment{
			From:          points[i],
			To:            points[i+1],
			DistanceMiles: miles,
			Duration:      time.Duration(miles / p.AverageSpeedMPH * float64(time.Hour)),
		})
	}
	return segs, nil
}

// HaversineMiles is the great-circle distance between two points in miles.
func HaversineMiles(a, b domain.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}
