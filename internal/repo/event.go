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

// EventRepo defines the persistence operations for the per-driver duty
// ledger. Events are append-only; there is no update or delete.
type EventRepo interface {
	// Insert appends a duty event and returns the persisted record.
	Insert(ctx context.Context, e domain.DutyEvent) (domain.DutyEvent, error)

	// Latest returns the driver's most recent event by timestamp.
	// Returns domain.ErrNotFound when the ledger is empty.
	Latest(ctx context.Context, driverID uuid.UUID) (domain.DutyEvent, error)

	// ListCovering returns the driver's events with timestamps in
	// (from, to), plus the latest event at or before from so callers can
	// clip the status interval that straddles the window start.
	// Ordered ascending by timestamp; always non-nil.
	ListCovering(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DutyEvent, error)
}

type pgEventRepo struct {
	db db
}

// NewEventRepo constructs an EventRepo backed by the provided db connection.
func NewEventRepo(db db) EventRepo {
	return &pgEventRepo{db: db}
}

const eventColumns = `id, driver_id, duty_status, event_time, location, notes, created_at`

func (r *pgEventRepo) Insert(ctx context.Context, e domain.DutyEvent) (domain.DutyEvent, error) {
	const q = `
		INSERT INTO duty_events (driver_id, duty_status, event_time, location, notes)
		VALUES (@driver_id, @duty_status, @event_time, @location, @notes)
		RETURNING ` + eventColumns

	args := pgx.NamedArgs{
		"driver_id":   e.DriverID,
		"duty_status": string(e.Status),
		"event_time":  e.Timestamp,
		"location":    e.Location, // pgx encodes the struct as jsonb
		"notes":       e.Notes,
	}

	result, err := scanEvent(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.DutyEvent{}, fmt.Errorf("repo.EventRepo.Insert: %w", err)
	}
	return result, nil
}

func (r *pgEventRepo) Latest(ctx context.Context, driverID uuid.UUID) (domain.DutyEvent, error) {
	const q = `
		SELECT ` + eventColumns + `
		FROM duty_events
		WHERE driver_id = @driver_id
		ORDER BY event_time DESC
		LIMIT 1`

	result, err := scanEvent(r.db.QueryRow(ctx, q, pgx.NamedArgs{"driver_id": driverID}))
	if err != nil {
		return domain.DutyEvent{}, fmt.Errorf("repo.EventRepo.Latest: %w", err)
	}
	return result, nil
}

func (r *pgEventRepo) ListCovering(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DutyEvent, error) {
	// The UNION pulls in the event whose interval straddles `from`.
	const q = `
		(SELECT ` + eventColumns + `
		 FROM duty_events
		 WHERE driver_id = @driver_id AND event_time <= @from
		 ORDER BY event_time DESC
		 LIMIT 1)
		UNION ALL
		(SELECT ` + eventColumns + `
		 FROM duty_events
		 WHERE driver_id = @driver_id AND event_time > @from AND event_time < @to)
		ORDER BY event_time ASC`

	args := pgx.NamedArgs{"driver_id": driverID, "from": from, "to": to}
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.EventRepo.ListCovering: %w", err)
	}
	defer rows.Close()

	events := []domain.DutyEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.EventRepo.ListCovering: scan: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.EventRepo.ListCovering: rows: %w", err)
	}
	return events, nil
}

func scanEvent(s scanner) (domain.DutyEvent, error) {
	var (
		e        domain.DutyEvent
		id       pgtype.UUID
		driverID pgtype.UUID
		status   string
	)
	err := s.Scan(&id, &driverID, &status, &e.Timestamp, &e.Location, &e.Notes, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DutyEvent{}, domain.ErrNotFound
		}
		return domain.DutyEvent{}, err
	}
	e.ID = uuid.UUID(id.Bytes)
	e.DriverID = uuid.UUID(driverID.Bytes)
	e.Status = domain.DutyStatus(status)
	return e, nil
}
