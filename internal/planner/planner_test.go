package planner_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/hos"
	"github.com/freighthos/eld-engine/internal/planner"
)

var start = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func leg(fromLat, fromLng, toLat, toLng, miles, hours float64) domain.Leg {
	return domain.Leg{
		From:          domain.Location{Lat: fromLat, Lng: fromLng},
		To:            domain.Location{Lat: toLat, Lng: toLng},
		DistanceMiles: miles,
		Duration:      time.Duration(hours * float64(time.Hour)),
	}
}

// stopsOfType filters the plan's stops by type, preserving order.
func stopsOfType(stops []domain.Stop, t domain.StopType) []domain.Stop {
	var out []domain.Stop
	for _, s := range stops {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

func TestPlanStops_ShortTripHasOnlyDockStops(t *testing.T) {
	in := planner.Input{
		Legs: []domain.Leg{
			leg(41.88, -87.63, 41.50, -90.51, 100, 2), // current → pickup
			leg(41.50, -90.51, 39.10, -94.58, 150, 3), // pickup → dropoff
		},
		PickupIndex: 1,
		StartTime:   start,
	}

	plan := planner.PlanStops(in, hos.DefaultRules())

	assert.True(t, plan.Compliant)
	assert.Empty(t, plan.Violations)
	require.Len(t, plan.Stops, 2)

	pickup, dropoff := plan.Stops[0], plan.Stops[1]
	assert.Equal(t, domain.StopPickup, pickup.Type)
	assert.Equal(t, start.Add(2*time.Hour), pickup.PlannedArrival)
	assert.Equal(t, 60, pickup.DurationMinutes)
	assert.True(t, pickup.IsMandatory)
	assert.InDelta(t, 100, pickup.DistanceFromPrevious, 1e-9)

	assert.Equal(t, domain.StopDropoff, dropoff.Type)
	assert.Equal(t, start.Add(6*time.Hour), dropoff.PlannedArrival)
	assert.Equal(t, 60, dropoff.DurationMinutes)

	assert.InDelta(t, 250, plan.TotalDistance, 1e-9)
	assert.Equal(t, start.Add(7*time.Hour), plan.EndTime)
	assert.Equal(t, 7*time.Hour, plan.EstimatedDuration)
	for i, s := range plan.Stops {
		assert.Equal(t, i+1, s.Sequence)
	}
}

func TestPlanStops_BreakAfterEightHoursDriving(t *testing.T) {
	// 9h of total driving: one 30-minute break, no rest stop.
	in := planner.Input{
		Legs: []domain.Leg{
			leg(41.88, -87.63, 41.50, -90.51, 60, 1),
			leg(41.50, -90.51, 32.78, -96.80, 480, 8),
		},
		PickupIndex: 1,
		StartTime:   start,
	}

	plan := planner.PlanStops(in, hos.DefaultRules())

	assert.True(t, plan.Compliant)
	breaks := stopsOfType(plan.Stops, domain.StopBreak)
	require.Len(t, breaks, 1)
	assert.Empty(t, stopsOfType(plan.Stops, domain.StopRest))

	// 1h leg + 1h dock + 7h more driving puts continuous driving at 8h.
	assert.Equal(t, start.Add(9*time.Hour), breaks[0].PlannedArrival)
	assert.Equal(t, 30, breaks[0].DurationMinutes)
	assert.True(t, breaks[0].IsMandatory)
	assert.Equal(t, "Break Stop", breaks[0].Location.Name)
}

func TestPlanStops_RestAfterDailyDrivingLimit(t *testing.T) {
	// 16h of driving forces a break at 8h continuous and a 10h rest when
	// the 11h daily driving cap runs out.
	in := planner.Input{
		Legs: []domain.Leg{
			leg(41.88, -87.63, 41.50, -90.51, 60, 1),
			leg(41.50, -90.51, 29.76, -95.37, 900, 15),
		},
		PickupIndex: 1,
		StartTime:   start,
	}

	plan := planner.PlanStops(in, hos.DefaultRules())

	assert.True(t, plan.Compliant)
	require.Len(t, stopsOfType(plan.Stops, domain.StopBreak), 1)
	rests := stopsOfType(plan.Stops, domain.StopRest)
	require.Len(t, rests, 1)
	assert.Equal(t, 600, rests[0].DurationMinutes)
	assert.Equal(t, "Rest Stop", rests[0].Location.Name)

	// Arrival ordering is the schedule ordering.
	for i := 1; i < len(plan.Stops); i++ {
		assert.False(t, plan.Stops[i].PlannedArrival.Before(plan.Stops[i-1].PlannedArrival))
	}
}

func TestPlanStops_FuelStopAtInterval(t *testing.T) {
	// Fast enough that the fuel interval fires before any duty threshold.
	in := planner.Input{
		Legs:        []domain.Leg{leg(41.88, -87.63, 33.45, -112.07, 1200, 6)},
		PickupIndex: 0,
		StartTime:   start,
	}

	plan := planner.PlanStops(in, hos.DefaultRules())

	fuels := stopsOfType(plan.Stops, domain.StopFuel)
	require.Len(t, fuels, 1)
	assert.InDelta(t, 1000, fuels[0].DistanceFromPrevious, 1e-6)
	assert.Equal(t, 30, fuels[0].DurationMinutes)
	assert.False(t, fuels[0].IsMandatory)
	assert.Equal(t, "Fuel Stop", fuels[0].Location.Name)
}

func TestPlanStops_FuelFoldedIntoUpcomingBreak(t *testing.T) {
	// The fuel interval fires just before the 8h break on the same leg:
	// the break absorbs the fueling instead of scheduling two stops.
	in := planner.Input{
		Legs:        []domain.Leg{leg(41.88, -87.63, 33.45, -112.07, 1300, 10)},
		PickupIndex: 0,
		StartTime:   start,
	}

	plan := planner.PlanStops(in, hos.DefaultRules())

	assert.Empty(t, stopsOfType(plan.Stops, domain.StopFuel))
	breaks := stopsOfType(plan.Stops, domain.StopBreak)
	require.Len(t, breaks, 1)
	assert.Equal(t, "Combined with fueling", breaks[0].Notes)
}

func TestPlanStops_RestartWhenCycleRunsOutMidTrip(t *testing.T) {
	in := planner.Input{
		Legs: []domain.Leg{
			leg(41.88, -87.63, 41.50, -90.51, 60, 1),
			leg(41.50, -90.51, 39.10, -94.58, 240, 4),
		},
		PickupIndex: 1,
		State:       planner.DriverState{CycleHoursUsed: 68},
		StartTime:   start,
	}

	plan := planner.PlanStops(in, hos.DefaultRules())

	assert.False(t, plan.Compliant)
	require.Len(t, plan.Violations, 1)
	assert.Contains(t, plan.Violations[0], "restart required en route")
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "delivery ETA")

	rests := stopsOfType(plan.Stops, domain.StopRest)
	require.Len(t, rests, 1)
	assert.Equal(t, 34*60, rests[0].DurationMinutes)
	assert.Equal(t, "Cycle Restart", rests[0].Location.Name)
	assert.True(t, strings.Contains(rests[0].Notes, "restart"))

	// 1h drive + 1h dock exhausts the cycle; 34h restart, 4h drive, 1h dock.
	assert.Equal(t, start.Add(41*time.Hour), plan.EndTime)
}

func TestPlanStops_RestartBeforeDepartureWhenCycleAlreadySpent(t *testing.T) {
	in := planner.Input{
		Legs: []domain.Leg{
			leg(41.88, -87.63, 41.50, -90.51, 60, 1),
			leg(41.50, -90.51, 39.10, -94.58, 240, 4),
		},
		PickupIndex: 1,
		State:       planner.DriverState{CycleHoursUsed: 70},
		StartTime:   start,
	}

	plan := planner.PlanStops(in, hos.DefaultRules())

	assert.False(t, plan.Compliant)
	require.NotEmpty(t, plan.Stops)
	first := plan.Stops[0]
	assert.Equal(t, domain.StopRest, first.Type)
	assert.Equal(t, start, first.PlannedArrival)
	assert.Equal(t, 34*60, first.DurationMinutes)
}

func TestPlanStops_Deterministic(t *testing.T) {
	in := planner.Input{
		Legs: []domain.Leg{
			leg(41.88, -87.63, 41.50, -90.51, 60, 1),
			leg(41.50, -90.51, 29.76, -95.37, 900, 15),
		},
		PickupIndex: 1,
		State:       planner.DriverState{CycleHoursUsed: 12.5},
		StartTime:   start,
	}
	rules := hos.DefaultRules()

	a := planner.PlanStops(in, rules)
	b := planner.PlanStops(in, rules)

	assert.Equal(t, a, b)
}
