package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/hos"
	"github.com/freighthos/eld-engine/internal/service"
)

func TestLedgerService_RecordEvent_FirstEvent(t *testing.T) {
	driverID := uuid.New()
	ts := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	events := emptyLedgerEvents()
	events.insert = func(_ context.Context, e domain.DutyEvent) (domain.DutyEvent, error) {
		assert.Equal(t, driverID, e.DriverID)
		assert.Equal(t, domain.StatusDriving, e.Status)
		assert.Equal(t, ts, e.Timestamp)
		e.ID = uuid.New()
		return e, nil
	}

	svc := service.NewLedgerService(events, uncertifiedLogs(), hos.DefaultRules())

	created, err := svc.RecordEvent(context.Background(), domain.DutyEvent{
		DriverID:  driverID,
		Status:    domain.StatusDriving,
		Timestamp: ts,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestLedgerService_RecordEvent_RejectsOutOfOrderTimestamp(t *testing.T) {
	driverID := uuid.New()
	latest := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	events := emptyLedgerEvents()
	events.latest = func(context.Context, uuid.UUID) (domain.DutyEvent, error) {
		return domain.DutyEvent{DriverID: driverID, Status: domain.StatusDriving, Timestamp: latest}, nil
	}

	svc := service.NewLedgerService(events, uncertifiedLogs(), hos.DefaultRules())

	// Same instant as the latest event is rejected too, not just earlier.
	for _, ts := range []time.Time{latest.Add(-time.Minute), latest} {
		_, err := svc.RecordEvent(context.Background(), domain.DutyEvent{
			DriverID:  driverID,
			Status:    domain.StatusOffDuty,
			Timestamp: ts,
		})
		assert.ErrorIs(t, err, domain.ErrOutOfOrderTimestamp)
	}
}

func TestLedgerService_RecordEvent_RejectsCertifiedDay(t *testing.T) {
	driverID := uuid.New()
	ts := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	logs := uncertifiedLogs()
	logs.isCertified = func(_ context.Context, _ uuid.UUID, date time.Time) (bool, error) {
		assert.Equal(t, hos.DayStart(ts), date)
		return true, nil
	}

	svc := service.NewLedgerService(emptyLedgerEvents(), logs, hos.DefaultRules())

	_, err := svc.RecordEvent(context.Background(), domain.DutyEvent{
		DriverID:  driverID,
		Status:    domain.StatusDriving,
		Timestamp: ts,
	})
	assert.ErrorIs(t, err, domain.ErrLogCertified)
}

func TestLedgerService_RecordEvent_RejectsUnknownStatus(t *testing.T) {
	svc := service.NewLedgerService(emptyLedgerEvents(), uncertifiedLogs(), hos.DefaultRules())

	_, err := svc.RecordEvent(context.Background(), domain.DutyEvent{
		DriverID: uuid.New(),
		Status:   "napping",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLedgerService_RecordEvent_RejectsBadLocation(t *testing.T) {
	svc := service.NewLedgerService(emptyLedgerEvents(), uncertifiedLogs(), hos.DefaultRules())

	_, err := svc.RecordEvent(context.Background(), domain.DutyEvent{
		DriverID: uuid.New(),
		Status:   domain.StatusDriving,
		Location: domain.Location{Lat: 91, Lng: 0.5},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLedgerService_RecordEvent_DefaultsTimestampToNow(t *testing.T) {
	before := time.Now().UTC()

	events := emptyLedgerEvents()
	var inserted domain.DutyEvent
	events.insert = func(_ context.Context, e domain.DutyEvent) (domain.DutyEvent, error) {
		inserted = e
		return e, nil
	}

	svc := service.NewLedgerService(events, uncertifiedLogs(), hos.DefaultRules())

	_, err := svc.RecordEvent(context.Background(), domain.DutyEvent{
		DriverID: uuid.New(),
		Status:   domain.StatusOnDutyNotDriving,
	})

	require.NoError(t, err)
	assert.False(t, inserted.Timestamp.Before(before))
	assert.False(t, inserted.Timestamp.After(time.Now().UTC()))
}

func TestLedgerService_CurrentStatus_EmptyLedgerIsOffDuty(t *testing.T) {
	svc := service.NewLedgerService(emptyLedgerEvents(), uncertifiedLogs(), hos.DefaultRules())

	status, err := svc.CurrentStatus(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusOffDuty, status)
}

func TestLedgerService_CurrentStatus_FollowsLatestEvent(t *testing.T) {
	events := emptyLedgerEvents()
	events.latest = func(context.Context, uuid.UUID) (domain.DutyEvent, error) {
		return domain.DutyEvent{Status: domain.StatusSleeperBerth}, nil
	}

	svc := service.NewLedgerService(events, uncertifiedLogs(), hos.DefaultRules())

	status, err := svc.CurrentStatus(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusSleeperBerth, status)
}

func TestLedgerService_Assess_WindowCoversOneCycle(t *testing.T) {
	rules := hos.DefaultRules()
	asOf := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	events := emptyLedgerEvents()
	events.listCovering = func(_ context.Context, _ uuid.UUID, from, to time.Time) ([]domain.DutyEvent, error) {
		assert.Equal(t, asOf.Add(-rules.CyclePeriod), from)
		assert.Equal(t, asOf, to)
		return []domain.DutyEvent{}, nil
	}

	svc := service.NewLedgerService(events, uncertifiedLogs(), rules)

	a, err := svc.Assess(context.Background(), uuid.New(), asOf)

	require.NoError(t, err)
	assert.True(t, a.CanDrive)
	assert.InDelta(t, rules.MaxCycleHours, a.CycleRemaining, 1e-9)
}
