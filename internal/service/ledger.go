// Package service contains the business logic for the HOS engine API.
// Services validate inputs, enforce business rules, and orchestrate repo,
// routing, and planner calls. No SQL lives here; services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/hos"
	"github.com/freighthos/eld-engine/internal/repo"
)

// LedgerService owns the append-only duty ledger. All duty-status changes in
// the system flow through RecordEvent, including the ones trip transitions
// emit, so the ledger stays the single source of truth for derived HOS state.
type LedgerService struct {
	events repo.EventRepo
	logs   repo.DailyLogRepo
	rules  hos.Rules
	locks  *driverLocks
	now    func() time.Time
}

// NewLedgerService constructs a LedgerService backed by the provided repos.
func NewLedgerService(events repo.EventRepo, logs repo.DailyLogRepo, rules hos.Rules) *LedgerService {
	return &LedgerService{
		events: events,
		logs:   logs,
		rules:  rules,
		locks:  newDriverLocks(),
		now:    time.Now,
	}
}

// RecordEvent validates and appends a duty-status change to the driver's
// ledger. Appends for one driver are serialized so the ordering check cannot
// race with a concurrent insert.
//
// Returns domain.ErrValidation for an invalid status or location,
// domain.ErrOutOfOrderTimestamp if the event is not strictly after the
// driver's latest event, and domain.ErrLogCertified if the event's day has
// already been certified.
func (s *LedgerService) RecordEvent(ctx context.Context, e domain.DutyEvent) (domain.DutyEvent, error) {
	if _, err := domain.ParseDutyStatus(string(e.Status)); err != nil {
		return domain.DutyEvent{}, fmt.Errorf("service.LedgerService.RecordEvent: %w", err)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	e.Timestamp = e.Timestamp.UTC()
	if !e.Location.IsZero() {
		if err := e.Location.Validate(); err != nil {
			return domain.DutyEvent{}, fmt.Errorf("service.LedgerService.RecordEvent: %w", err)
		}
	}

	lock := s.locks.get(e.DriverID)
	lock.Lock()
	defer lock.Unlock()

	latest, err := s.events.Latest(ctx, e.DriverID)
	switch {
	case err == nil:
		if !e.Timestamp.After(latest.Timestamp) {
			return domain.DutyEvent{}, fmt.Errorf(
				"service.LedgerService.RecordEvent: event at %s is not after latest at %s: %w",
				e.Timestamp.Format(time.RFC3339), latest.Timestamp.Format(time.RFC3339),
				domain.ErrOutOfOrderTimestamp)
		}
	case errors.Is(err, domain.ErrNotFound):
		// First event for this driver.
	default:
		return domain.DutyEvent{}, fmt.Errorf("service.LedgerService.RecordEvent: %w", err)
	}

	certified, err := s.logs.IsCertified(ctx, e.DriverID, hos.DayStart(e.Timestamp))
	if err != nil {
		return domain.DutyEvent{}, fmt.Errorf("service.LedgerService.RecordEvent: %w", err)
	}
	if certified {
		return domain.DutyEvent{}, fmt.Errorf(
			"service.LedgerService.RecordEvent: day %s is certified: %w",
			hos.DayStart(e.Timestamp).Format("2006-01-02"), domain.ErrLogCertified)
	}

	created, err := s.events.Insert(ctx, e)
	if err != nil {
		return domain.DutyEvent{}, fmt.Errorf("service.LedgerService.RecordEvent: %w", err)
	}
	return created, nil
}

// CurrentStatus derives the driver's duty status from the latest ledger
// event. A driver with no events is off duty.
func (s *LedgerService) CurrentStatus(ctx context.Context, driverID uuid.UUID) (domain.DutyStatus, error) {
	latest, err := s.events.Latest(ctx, driverID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.StatusOffDuty, nil
		}
		return "", fmt.Errorf("service.LedgerService.CurrentStatus: %w", err)
	}
	return latest.Status, nil
}

// Assess evaluates the driver's ledger against the HOS rules as of the given
// instant. The event window covers one full cycle period before asOf so the
// rolling 70-hour total is exact.
func (s *LedgerService) Assess(ctx context.Context, driverID uuid.UUID, asOf time.Time) (hos.Assessment, error) {
	events, err := s.eventsCovering(ctx, driverID, asOf)
	if err != nil {
		return hos.Assessment{}, fmt.Errorf("service.LedgerService.Assess: %w", err)
	}
	return hos.Evaluate(events, asOf, s.rules), nil
}

// eventsCovering loads the events needed to evaluate HOS state as of asOf:
// everything in the trailing cycle period plus the one event before it that
// establishes the status at the window start.
func (s *LedgerService) eventsCovering(ctx context.Context, driverID uuid.UUID, asOf time.Time) ([]domain.DutyEvent, error) {
	from := asOf.Add(-s.rules.CyclePeriod)
	return s.events.ListCovering(ctx, driverID, from, asOf)
}
