package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/hos"
	"github.com/freighthos/eld-engine/internal/planner"
	"github.com/freighthos/eld-engine/internal/repo"
)

// TripService plans trips and drives their lifecycle. Planning is a pure
// computation over the routed legs and the driver's duty clock; lifecycle
// transitions are compare-and-set on the persisted status and emit duty
// events through the ledger so the daily logs reflect them.
type TripService struct {
	trips     repo.TripRepo
	ledger    *LedgerService
	segmenter *planner.Segmenter
	rules     hos.Rules
	now       func() time.Time
}

// NewTripService constructs a TripService.
func NewTripService(trips repo.TripRepo, ledger *LedgerService, seg *planner.Segmenter, rules hos.Rules) *TripService {
	return &TripService{
		trips:     trips,
		ledger:    ledger,
		segmenter: seg,
		rules:     rules,
		now:       time.Now,
	}
}

// PlanTripInput is one trip-planning request.
type PlanTripInput struct {
	CurrentLocation domain.Location
	PickupLocation  domain.Location
	DropoffLocation domain.Location

	// CurrentCycleHours overrides the ledger-derived cycle usage when set.
	// Drivers migrating from paper logs have hours the ledger cannot know.
	CurrentCycleHours *float64

	// PlannedStartTime defaults to now.
	PlannedStartTime *time.Time
}

// Plan routes current → pickup → dropoff, schedules the HOS-mandated stops,
// and persists the resulting trip in planned status. A schedule that cannot
// meet the HOS limits is still persisted, with IsHOSCompliant=false and the
// violations attached; the caller decides what to do with it.
//
// Returns domain.ErrValidation for bad coordinates,
// domain.ErrGeocodeUnresolved or domain.ErrRouteUnavailable when the routing
// provider fails.
func (s *TripService) Plan(ctx context.Context, driverID uuid.UUID, in PlanTripInput) (domain.Trip, error) {
	for _, loc := range []domain.Location{in.CurrentLocation, in.PickupLocation, in.DropoffLocation} {
		if loc.IsZero() && loc.Address == "" {
			return domain.Trip{}, fmt.Errorf("service.TripService.Plan: %w: location requires coordinates or an address", domain.ErrValidation)
		}
		if !loc.IsZero() {
			if err := loc.Validate(); err != nil {
				return domain.Trip{}, fmt.Errorf("service.TripService.Plan: %w", err)
			}
		}
	}
	if in.CurrentCycleHours != nil && (*in.CurrentCycleHours < 0 || *in.CurrentCycleHours > s.rules.MaxCycleHours) {
		return domain.Trip{}, fmt.Errorf("service.TripService.Plan: %w: current_cycle_hours must be between 0 and %g",
			domain.ErrValidation, s.rules.MaxCycleHours)
	}

	start := s.now().UTC()
	if in.PlannedStartTime != nil {
		start = in.PlannedStartTime.UTC()
	}

	legs, err := s.segmenter.Segment(ctx, in.CurrentLocation, in.DropoffLocation, []domain.Location{in.PickupLocation})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Plan: %w", err)
	}

	cycleHours := 0.0
	if in.CurrentCycleHours != nil {
		cycleHours = *in.CurrentCycleHours
	} else {
		assessment, err := s.ledger.Assess(ctx, driverID, start)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Plan: %w", err)
		}
		cycleHours = assessment.CycleHoursUsed
	}
	status, err := s.ledger.CurrentStatus(ctx, driverID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Plan: %w", err)
	}

	plan := planner.PlanStops(planner.Input{
		Legs:        legs,
		PickupIndex: 1,
		State: planner.DriverState{
			CycleHoursUsed: cycleHours,
			CurrentStatus:  status,
		},
		StartTime: start,
	}, s.rules)

	end := plan.EndTime
	trip := domain.Trip{
		DriverID:          driverID,
		CurrentLocation:   legs[0].From,
		PickupLocation:    legs[1].From,
		DropoffLocation:   legs[len(legs)-1].To,
		CurrentCycleHours: cycleHours,
		TotalDistance:     plan.TotalDistance,
		EstimatedDuration: plan.EstimatedDuration,
		Status:            domain.TripPlanned,
		PlannedStartTime:  start,
		EstimatedEndTime:  &end,
		IsHOSCompliant:    plan.Compliant,
		HOSViolations:     plan.Violations,
		Stops:             plan.Stops,
	}

	created, err := s.trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Plan: %w", err)
	}
	return created, nil
}

// GetByID returns a trip with its stops, scoped to the driver.
func (s *TripService) GetByID(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, driverID, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// List returns the driver's trips newest first, plus the total count.
func (s *TripService) List(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.trips.ListByDriver(ctx, driverID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, total, nil
}

// ListRecent returns the driver's trips created in the trailing window.
func (s *TripService) ListRecent(ctx context.Context, driverID uuid.UUID, window time.Duration, limit int) ([]domain.Trip, error) {
	if limit <= 0 {
		limit = 10
	}
	since := s.now().UTC().Add(-window)
	trips, err := s.trips.ListByDriverSince(ctx, driverID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListRecent: %w", err)
	}
	return trips, nil
}

// Start activates a planned trip. The driver must currently be allowed to
// drive: an active HOS violation blocks the start and is reported via
// domain.CannotStartError. A successful start stamps the actual start time
// and records an on-duty event at the trip's current location.
//
// Returns domain.ErrConflict if the trip is not in planned status.
func (s *TripService) Start(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error) {
	now := s.now().UTC()

	assessment, err := s.ledger.Assess(ctx, driverID, now)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Start: %w", err)
	}
	if !assessment.CanDrive {
		return domain.Trip{}, fmt.Errorf("service.TripService.Start: %w",
			&domain.CannotStartError{Violations: assessment.Violations})
	}

	trip, err := s.trips.UpdateStatus(ctx, driverID, tripID, domain.TripPlanned, domain.TripActive, &now, nil)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Start: %w", err)
	}

	if err := s.recordTransitionEvent(ctx, trip, domain.TripPlanned, domain.DutyEvent{
		DriverID:  driverID,
		Status:    domain.StatusOnDutyNotDriving,
		Timestamp: now,
		Location:  trip.CurrentLocation,
		Notes:     "Trip started",
	}); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Start: %w", err)
	}

	trip.Stops, err = s.trips.StopsByTrip(ctx, trip.ID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Start: %w", err)
	}
	return trip, nil
}

// Complete finishes an active trip, stamps the actual end time, and records
// an off-duty event at the dropoff location.
//
// Returns domain.ErrConflict if the trip is not in active status.
func (s *TripService) Complete(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error) {
	now := s.now().UTC()

	trip, err := s.trips.UpdateStatus(ctx, driverID, tripID, domain.TripActive, domain.TripCompleted, nil, &now)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Complete: %w", err)
	}

	if err := s.recordTransitionEvent(ctx, trip, domain.TripActive, domain.DutyEvent{
		DriverID:  driverID,
		Status:    domain.StatusOffDuty,
		Timestamp: now,
		Location:  trip.DropoffLocation,
		Notes:     "Trip completed",
	}); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Complete: %w", err)
	}

	trip.Stops, err = s.trips.StopsByTrip(ctx, trip.ID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Complete: %w", err)
	}
	return trip, nil
}

// Cancel abandons a planned or active trip. Cancelling an active trip also
// records an off-duty event; cancelling a planned one leaves the ledger
// untouched because the driver never went on duty for it.
//
// Returns domain.ErrConflict if the trip is already completed or cancelled.
func (s *TripService) Cancel(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error) {
	now := s.now().UTC()

	current, err := s.trips.GetByID(ctx, driverID, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Cancel: %w", err)
	}
	if current.Status.Terminal() {
		return domain.Trip{}, fmt.Errorf("service.TripService.Cancel: trip is %s: %w", current.Status, domain.ErrConflict)
	}

	wasActive := current.Status == domain.TripActive
	var endedAt *time.Time
	if wasActive {
		endedAt = &now
	}
	trip, err := s.trips.UpdateStatus(ctx, driverID, tripID, current.Status, domain.TripCancelled, nil, endedAt)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Cancel: %w", err)
	}

	if wasActive {
		if err := s.recordTransitionEvent(ctx, trip, domain.TripActive, domain.DutyEvent{
			DriverID:  driverID,
			Status:    domain.StatusOffDuty,
			Timestamp: now,
			Location:  trip.CurrentLocation,
			Notes:     "Trip cancelled",
		}); err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Cancel: %w", err)
		}
	}

	trip.Stops, err = s.trips.StopsByTrip(ctx, trip.ID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Cancel: %w", err)
	}
	return trip, nil
}

// recordTransitionEvent appends the duty event that accompanies a status
// transition. When the ledger rejects the event (certified day, out-of-order
// timestamp) the trip is rolled back to its prior status, so a rejected event
// never strands the trip in the new state. Any time stamped by the forward
// transition is left in place; a later successful transition overwrites it.
func (s *TripService) recordTransitionEvent(ctx context.Context, trip domain.Trip, prior domain.TripStatus, e domain.DutyEvent) error {
	if _, err := s.ledger.RecordEvent(ctx, e); err != nil {
		if _, rerr := s.trips.UpdateStatus(ctx, trip.DriverID, trip.ID, trip.Status, prior, nil, nil); rerr != nil {
			return fmt.Errorf("duty event rejected and trip status revert failed: %v: %w", rerr, err)
		}
		return fmt.Errorf("duty event rejected: %w", err)
	}
	return nil
}

// Delete removes a trip and its stops.
func (s *TripService) Delete(ctx context.Context, driverID, tripID uuid.UUID) error {
	if err := s.trips.Delete(ctx, driverID, tripID); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// Stops returns a trip's stops ordered by sequence, scoped to the driver.
func (s *TripService) Stops(ctx context.Context, driverID, tripID uuid.UUID) ([]domain.Stop, error) {
	if _, err := s.trips.GetByID(ctx, driverID, tripID); err != nil {
		return nil, fmt.Errorf("service.TripService.Stops: %w", err)
	}
	stops, err := s.trips.StopsByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Stops: %w", err)
	}
	return stops, nil
}
