package planner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/planner"
	"github.com/freighthos/eld-engine/internal/routing"
)

// mockProvider is a hand-written test double for routing.Provider.
type mockProvider struct {
	geocode func(ctx context.Context, query string) (domain.Location, error)
	route   func(ctx context.Context, points []domain.Location) ([]routing.Segment, error)
}

func (m *mockProvider) Geocode(ctx context.Context, query string) (domain.Location, error) {
	return m.geocode(ctx, query)
}

func (m *mockProvider) Route(ctx context.Context, points []domain.Location) ([]routing.Segment, error) {
	return m.route(ctx, points)
}

var _ routing.Provider = (*mockProvider)(nil)

func TestSegmenter_Segment_OK(t *testing.T) {
	origin := domain.Location{Lat: 41.88, Lng: -87.63}
	pickup := domain.Location{Lat: 41.50, Lng: -90.51}
	dropoff := domain.Location{Lat: 39.10, Lng: -94.58}

	seg := planner.NewSegmenter(&mockProvider{
		route: func(_ context.Context, points []domain.Location) ([]routing.Segment, error) {
			require.Len(t, points, 3)
			return []routing.Segment{
				{From: points[0], To: points[1], DistanceMiles: 160, Duration: 3 * time.Hour},
				{From: points[1], To: points[2], DistanceMiles: 250, Duration: 4 * time.Hour},
			}, nil
		},
	})

	legs, err := seg.Segment(context.Background(), origin, dropoff, []domain.Location{pickup})

	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, origin, legs[0].From)
	assert.Equal(t, pickup, legs[0].To)
	assert.InDelta(t, 160, legs[0].DistanceMiles, 1e-9)
	assert.Equal(t, 4*time.Hour, legs[1].Duration)
}

func TestSegmenter_Segment_GeocodesAddressOnlyPoints(t *testing.T) {
	resolved := domain.Location{Lat: 41.88, Lng: -87.63, Address: "Chicago, IL, USA"}

	seg := planner.NewSegmenter(&mockProvider{
		geocode: func(_ context.Context, query string) (domain.Location, error) {
			assert.Equal(t, "Chicago, IL", query)
			return resolved, nil
		},
		route: func(_ context.Context, points []domain.Location) ([]routing.Segment, error) {
			assert.Equal(t, resolved.Lat, points[0].Lat)
			return []routing.Segment{
				{From: points[0], To: points[1], DistanceMiles: 100, Duration: 2 * time.Hour},
			}, nil
		},
	})

	legs, err := seg.Segment(context.Background(),
		domain.Location{Address: "Chicago, IL"},
		domain.Location{Lat: 41.50, Lng: -90.51},
		nil)

	require.NoError(t, err)
	require.Len(t, legs, 1)
}

func TestSegmenter_Segment_NoCoordinatesOrAddress(t *testing.T) {
	seg := planner.NewSegmenter(&mockProvider{})

	_, err := seg.Segment(context.Background(),
		domain.Location{},
		domain.Location{Lat: 41.50, Lng: -90.51},
		nil)

	assert.ErrorIs(t, err, domain.ErrGeocodeUnresolved)
}

func TestSegmenter_Segment_GeocodeFailurePropagates(t *testing.T) {
	seg := planner.NewSegmenter(&mockProvider{
		geocode: func(_ context.Context, _ string) (domain.Location, error) {
			return domain.Location{}, domain.ErrGeocodeUnresolved
		},
	})

	_, err := seg.Segment(context.Background(),
		domain.Location{Address: "Nowhere At All"},
		domain.Location{Lat: 41.50, Lng: -90.51},
		nil)

	assert.ErrorIs(t, err, domain.ErrGeocodeUnresolved)
}

func TestSegmenter_Segment_RouteFailurePropagates(t *testing.T) {
	boom := errors.New("upstream down")
	seg := planner.NewSegmenter(&mockProvider{
		route: func(_ context.Context, _ []domain.Location) ([]routing.Segment, error) {
			return nil, boom
		},
	})

	_, err := seg.Segment(context.Background(),
		domain.Location{Lat: 41.88, Lng: -87.63},
		domain.Location{Lat: 41.50, Lng: -90.51},
		nil)

	assert.ErrorIs(t, err, boom)
}

func TestSegmenter_Segment_RejectsZeroDistanceLeg(t *testing.T) {
	seg := planner.NewSegmenter(&mockProvider{
		route: func(_ context.Context, points []domain.Location) ([]routing.Segment, error) {
			return []routing.Segment{
				{From: points[0], To: points[1], DistanceMiles: 0, Duration: time.Hour},
			}, nil
		},
	})

	_, err := seg.Segment(context.Background(),
		domain.Location{Lat: 41.88, Lng: -87.63},
		domain.Location{Lat: 41.50, Lng: -90.51},
		nil)

	assert.ErrorIs(t, err, domain.ErrRouteUnavailable)
}

func TestSegmenter_Segment_InvalidCoordinates(t *testing.T) {
	seg := planner.NewSegmenter(&mockProvider{})

	_, err := seg.Segment(context.Background(),
		domain.Location{Lat: 95, Lng: 0.1},
		domain.Location{Lat: 41.50, Lng: -90.51},
		nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
}
