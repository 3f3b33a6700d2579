package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/repo"
)

// Hand-written doubles over the repo interfaces. Each method delegates to a
// function field; an unset field panics, which fails the test loudly if a
// service touches a collaborator the test did not expect it to.

type mockEventRepo struct {
	insert       func(ctx context.Context, e domain.DutyEvent) (domain.DutyEvent, error)
	latest       func(ctx context.Context, driverID uuid.UUID) (domain.DutyEvent, error)
	listCovering func(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DutyEvent, error)
}

func (m *mockEventRepo) Insert(ctx context.Context, e domain.DutyEvent) (domain.DutyEvent, error) {
	return m.insert(ctx, e)
}

func (m *mockEventRepo) Latest(ctx context.Context, driverID uuid.UUID) (domain.DutyEvent, error) {
	return m.latest(ctx, driverID)
}

func (m *mockEventRepo) ListCovering(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DutyEvent, error) {
	return m.listCovering(ctx, driverID, from, to)
}

var _ repo.EventRepo = (*mockEventRepo)(nil)

type mockDailyLogRepo struct {
	getOrCreate func(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error)
	get         func(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error)
	certify     func(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error)
	isCertified func(ctx context.Context, driverID uuid.UUID, date time.Time) (bool, error)
	listRange   func(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLog, error)
}

func (m *mockDailyLogRepo) GetOrCreate(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error) {
	return m.getOrCreate(ctx, driverID, date)
}

func (m *mockDailyLogRepo) Get(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error) {
	return m.get(ctx, driverID, date)
}

func (m *mockDailyLogRepo) Certify(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error) {
	return m.certify(ctx, driverID, date)
}

func (m *mockDailyLogRepo) IsCertified(ctx context.Context, driverID uuid.UUID, date time.Time) (bool, error) {
	return m.isCertified(ctx, driverID, date)
}

func (m *mockDailyLogRepo) ListRange(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLog, error) {
	return m.listRange(ctx, driverID, from, to)
}

var _ repo.DailyLogRepo = (*mockDailyLogRepo)(nil)

type mockTripRepo struct {
	create            func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID           func(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error)
	listByDriver      func(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	listByDriverSince func(ctx context.Context, driverID uuid.UUID, since time.Time, limit int) ([]domain.Trip, error)
	updateStatus      func(ctx context.Context, driverID, tripID uuid.UUID, expected, next domain.TripStatus, startedAt, endedAt *time.Time) (domain.Trip, error)
	del               func(ctx context.Context, driverID, tripID uuid.UUID) error
	stopsByTrip       func(ctx context.Context, tripID uuid.UUID) ([]domain.Stop, error)
	statsByDriver     func(ctx context.Context, driverID uuid.UUID) (repo.TripStats, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}

func (m *mockTripRepo) GetByID(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, driverID, tripID)
}

func (m *mockTripRepo) ListByDriver(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listByDriver(ctx, driverID, p)
}

func (m *mockTripRepo) ListByDriverSince(ctx context.Context, driverID uuid.UUID, since time.Time, limit int) ([]domain.Trip, error) {
	return m.listByDriverSince(ctx, driverID, since, limit)
}

func (m *mockTripRepo) UpdateStatus(ctx context.Context, driverID, tripID uuid.UUID, expected, next domain.TripStatus, startedAt, endedAt *time.Time) (domain.Trip, error) {
	return m.updateStatus(ctx, driverID, tripID, expected, next, startedAt, endedAt)
}

func (m *mockTripRepo) Delete(ctx context.Context, driverID, tripID uuid.UUID) error {
	return m.del(ctx, driverID, tripID)
}

func (m *mockTripRepo) StopsByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Stop, error) {
	return m.stopsByTrip(ctx, tripID)
}

func (m *mockTripRepo) StatsByDriver(ctx context.Context, driverID uuid.UUID) (repo.TripStats, error) {
	return m.statsByDriver(ctx, driverID)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

type mockDriverRepo struct {
	create     func(ctx context.Context, d domain.Driver) (domain.Driver, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.Driver, error)
	getByEmail func(ctx context.Context, email string) (domain.Driver, error)
}

func (m *mockDriverRepo) Create(ctx context.Context, d domain.Driver) (domain.Driver, error) {
	return m.create(ctx, d)
}

func (m *mockDriverRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	return m.getByID(ctx, id)
}

func (m *mockDriverRepo) GetByEmail(ctx context.Context, email string) (domain.Driver, error) {
	return m.getByEmail(ctx, email)
}

var _ repo.DriverRepo = (*mockDriverRepo)(nil)

// emptyLedgerEvents is the common stub for drivers with a clean ledger.
func emptyLedgerEvents() *mockEventRepo {
	return &mockEventRepo{
		latest: func(context.Context, uuid.UUID) (domain.DutyEvent, error) {
			return domain.DutyEvent{}, domain.ErrNotFound
		},
		listCovering: func(context.Context, uuid.UUID, time.Time, time.Time) ([]domain.DutyEvent, error) {
			return []domain.DutyEvent{}, nil
		},
	}
}

// uncertifiedLogs is the common stub for days that were never certified.
func uncertifiedLogs() *mockDailyLogRepo {
	return &mockDailyLogRepo{
		isCertified: func(context.Context, uuid.UUID, time.Time) (bool, error) {
			return false, nil
		},
		get: func(context.Context, uuid.UUID, time.Time) (domain.DailyLog, error) {
			return domain.DailyLog{}, domain.ErrNotFound
		},
	}
}
