package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/freighthos/eld-engine/internal/domain"
)

// TripRepo defines the persistence operations for trips and their stops.
// A trip owns its stops: they are written together and deleted by cascade.
type TripRepo interface {
	// Create inserts a trip and all its stops in one transaction and
	// returns the persisted trip with stops attached.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a trip (with stops) scoped to the owning driver.
	// Returns domain.ErrNotFound if no such trip exists for that driver.
	GetByID(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error)

	// ListByDriver returns the driver's trips ordered by created_at
	// descending, without stops.
	ListByDriver(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// ListByDriverSince returns trips created at or after since, newest
	// first, capped at limit, without stops.
	ListByDriverSince(ctx context.Context, driverID uuid.UUID, since time.Time, limit int) ([]domain.Trip, error)

	// UpdateStatus transitions a trip from expected status to next,
	// optionally stamping actual start/end times. The compare-and-set on
	// the current status makes concurrent transitions lose cleanly:
	// returns domain.ErrConflict when the trip exists but is not in the
	// expected status, domain.ErrNotFound when it does not exist.
	UpdateStatus(ctx context.Context, driverID, tripID uuid.UUID, expected, next domain.TripStatus, startedAt, endedAt *time.Time) (domain.Trip, error)

	// Delete removes a trip and (by cascade) its stops.
	// Returns domain.ErrNotFound if no such trip exists for that driver.
	Delete(ctx context.Context, driverID, tripID uuid.UUID) error

	// StopsByTrip returns the trip's stops ordered by sequence.
	// Always returns a non-nil slice.
	StopsByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Stop, error)

	// StatsByDriver aggregates the driver's trips for the stats endpoint.
	StatsByDriver(ctx context.Context, driverID uuid.UUID) (TripStats, error)
}

// TripStats is the per-driver trip aggregate. CompletedDistance sums
// total_distance over completed trips only.
type TripStats struct {
	TotalTrips        int64   `json:"total_trips"`
	CompletedTrips    int64   `json:"completed_trips"`
	ActiveTrips       int64   `json:"active_trips"`
	CompletedDistance float64 `json:"total_distance_miles"`
}

type pgTripRepo struct {
	db txStarter
}

// NewTripRepo constructs a TripRepo backed by the provided connection.
// The trip repo needs Begin for the trip+stops insert, so it takes the pool
// (or a conn) rather than the plain db interface.
func NewTripRepo(db txStarter) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, driver_id, current_location, pickup_location, dropoff_location,
	current_cycle_hours, total_distance, estimated_duration_minutes, status,
	planned_start_time, actual_start_time, estimated_end_time, actual_end_time,
	is_hos_compliant, hos_violations, created_at, updated_at`

const stopColumns = `id, trip_id, stop_type, status, location, planned_arrival_time,
	planned_departure_time, duration_minutes, distance_from_previous, is_mandatory,
	sequence, notes, created_at, updated_at`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO trips (driver_id, current_location, pickup_location, dropoff_location,
			current_cycle_hours, total_distance, estimated_duration_minutes, status,
			planned_start_time, estimated_end_time, is_hos_compliant, hos_violations)
		VALUES (@driver_id, @current_location, @pickup_location, @dropoff_location,
			@current_cycle_hours, @total_distance, @estimated_duration_minutes, @status,
			@planned_start_time, @estimated_end_time, @is_hos_compliant, @hos_violations)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"driver_id":                  trip.DriverID,
		"current_location":           trip.CurrentLocation,
		"pickup_location":            trip.PickupLocation,
		"dropoff_location":           trip.DropoffLocation,
		"current_cycle_hours":        trip.CurrentCycleHours,
		"total_distance":             trip.TotalDistance,
		"estimated_duration_minutes": int(trip.EstimatedDuration.Minutes()),
		"status":                     string(trip.Status),
		"planned_start_time":         trip.PlannedStartTime,
		"estimated_end_time":         trip.EstimatedEndTime,
		"is_hos_compliant":           trip.IsHOSCompliant,
		"hos_violations":             trip.HOSViolations,
	}

	created, err := scanTrip(tx.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}

	const sq = `
		INSERT INTO stops (trip_id, stop_type, status, location, planned_arrival_time,
			planned_departure_time, duration_minutes, distance_from_previous,
			is_mandatory, sequence, notes)
		VALUES (@trip_id, @stop_type, @status, @location, @planned_arrival_time,
			@planned_departure_time, @duration_minutes, @distance_from_previous,
			@is_mandatory, @sequence, @notes)
		RETURNING ` + stopColumns

	created.Stops = make([]domain.Stop, 0, len(trip.Stops))
	for _, s := range trip.Stops {
		sargs := pgx.NamedArgs{
			"trip_id":                created.ID,
			"stop_type":              string(s.Type),
			"status":                 string(s.Status),
			"location":               s.Location,
			"planned_arrival_time":   s.PlannedArrival,
			"planned_departure_time": s.PlannedDeparture,
			"duration_minutes":       s.DurationMinutes,
			"distance_from_previous": s.DistanceFromPrevious,
			"is_mandatory":           s.IsMandatory,
			"sequence":               s.Sequence,
			"notes":                  s.Notes,
		}
		stop, err := scanStop(tx.QueryRow(ctx, sq, sargs))
		if err != nil {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: stop %d: %w", s.Sequence, err)
		}
		created.Stops = append(created.Stops, stop)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: commit: %w", err)
	}
	return created, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id AND driver_id = @driver_id`

	trip, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": tripID, "driver_id": driverID}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}

	stops, err := r.StopsByTrip(ctx, trip.ID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	trip.Stops = stops
	return trip, nil
}

func (r *pgTripRepo) ListByDriver(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const countQ = `SELECT count(*) FROM trips WHERE driver_id = @driver_id`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"driver_id": driverID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByDriver: count: %w", err)
	}

	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = @driver_id
		ORDER BY created_at DESC
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{"driver_id": driverID, "limit": p.Limit, "offset": p.Offset()}
	trips, err := r.queryTrips(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByDriver: %w", err)
	}
	return trips, total, nil
}

func (r *pgTripRepo) ListByDriverSince(ctx context.Context, driverID uuid.UUID, since time.Time, limit int) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = @driver_id AND created_at >= @since
		ORDER BY created_at DESC
		LIMIT @limit`

	args := pgx.NamedArgs{"driver_id": driverID, "since": since, "limit": limit}
	trips, err := r.queryTrips(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByDriverSince: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) UpdateStatus(ctx context.Context, driverID, tripID uuid.UUID, expected, next domain.TripStatus, startedAt, endedAt *time.Time) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET status            = @next,
		    actual_start_time = COALESCE(@started_at, actual_start_time),
		    actual_end_time   = COALESCE(@ended_at, actual_end_time),
		    updated_at        = now()
		WHERE id = @id AND driver_id = @driver_id AND status = @expected
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":         tripID,
		"driver_id":  driverID,
		"expected":   string(expected),
		"next":       string(next),
		"started_at": startedAt,
		"ended_at":   endedAt,
	}

	trip, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Distinguish a missing trip from a lost transition race.
			if _, gerr := r.GetByID(ctx, driverID, tripID); gerr == nil {
				return domain.Trip{}, fmt.Errorf("repo.TripRepo.UpdateStatus: trip not in %q status: %w", expected, domain.ErrConflict)
			}
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.UpdateStatus: %w", domain.ErrNotFound)
		}
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.UpdateStatus: %w", err)
	}
	return trip, nil
}

func (r *pgTripRepo) Delete(ctx context.Context, driverID, tripID uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id AND driver_id = @driver_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": tripID, "driver_id": driverID})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTripRepo) StopsByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Stop, error) {
	const q = `SELECT ` + stopColumns + ` FROM stops WHERE trip_id = @trip_id ORDER BY sequence ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.StopsByTrip: %w", err)
	}
	defer rows.Close()

	stops := []domain.Stop{}
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.StopsByTrip: scan: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.StopsByTrip: rows: %w", err)
	}
	return stops, nil
}

func (r *pgTripRepo) StatsByDriver(ctx context.Context, driverID uuid.UUID) (TripStats, error) {
	const q = `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'completed'),
		       count(*) FILTER (WHERE status = 'active'),
		       COALESCE(sum(total_distance) FILTER (WHERE status = 'completed'), 0)
		FROM trips
		WHERE driver_id = @driver_id`

	var stats TripStats
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"driver_id": driverID}).
		Scan(&stats.TotalTrips, &stats.CompletedTrips, &stats.ActiveTrips, &stats.CompletedDistance)
	if err != nil {
		return TripStats{}, fmt.Errorf("repo.TripRepo.StatsByDriver: %w", err)
	}
	return stats, nil
}

func (r *pgTripRepo) queryTrips(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return trips, nil
}

func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t           domain.Trip
		id          pgtype.UUID
		driverID    pgtype.UUID
		durationMin int
		status      string
	)
	err := s.Scan(&id, &driverID, &t.CurrentLocation, &t.PickupLocation, &t.DropoffLocation,
		&t.CurrentCycleHours, &t.TotalDistance, &durationMin, &status,
		&t.PlannedStartTime, &t.ActualStartTime, &t.EstimatedEndTime, &t.ActualEndTime,
		&t.IsHOSCompliant, &t.HOSViolations, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}
	t.ID = uuid.UUID(id.Bytes)
	t.DriverID = uuid.UUID(driverID.Bytes)
	t.EstimatedDuration = time.Duration(durationMin) * time.Minute
	t.Status = domain.TripStatus(status)
	if t.HOSViolations == nil {
		t.HOSViolations = []string{}
	}
	return t, nil
}

func scanStop(s scanner) (domain.Stop, error) {
	var (
		st       domain.Stop
		id       pgtype.UUID
		tripID   pgtype.UUID
		stopType string
		status   string
	)
	err := s.Scan(&id, &tripID, &stopType, &status, &st.Location, &st.PlannedArrival,
		&st.PlannedDeparture, &st.DurationMinutes, &st.DistanceFromPrevious,
		&st.IsMandatory, &st.Sequence, &st.Notes, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Stop{}, domain.ErrNotFound
		}
		return domain.Stop{}, err
	}
	st.ID = uuid.UUID(id.Bytes)
	st.TripID = uuid.UUID(tripID.Bytes)
	st.Type = domain.StopType(stopType)
	st.Status = domain.StopStatus(status)
	return st, nil
}
