package hos_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/hos"
)

func TestBuildDailyGrid_EmptyLedgerIsAllOffDuty(t *testing.T) {
	entries, totals := hos.BuildDailyGrid(nil, day0, day0.Add(48*time.Hour))

	require.Len(t, entries, 1)
	assert.Equal(t, domain.StatusOffDuty, entries[0].Status)
	assert.Equal(t, day0, entries[0].Start)
	assert.Equal(t, day0.Add(24*time.Hour), entries[0].End)
	assert.InDelta(t, 24.0, totals.OffDuty, 1e-9)
	assert.InDelta(t, 24.0, totals.Sum(), 1e-9)
}

func TestBuildDailyGrid_TotalsSumToTwentyFourHours(t *testing.T) {
	events := []domain.DutyEvent{
		ev(domain.StatusOnDutyNotDriving, day0.Add(5*time.Hour)),
		ev(domain.StatusDriving, day0.Add(6*time.Hour)),
		ev(domain.StatusOffDuty, day0.Add(14*time.Hour)),
	}

	entries, totals := hos.BuildDailyGrid(events, day0, day0.Add(48*time.Hour))

	require.Len(t, entries, 4)
	assert.InDelta(t, 24.0, totals.Sum(), 1e-9)
	assert.InDelta(t, 15.0, totals.OffDuty, 1e-9) // 5h before + 10h after
	assert.InDelta(t, 1.0, totals.OnDutyNotDriving, 1e-9)
	assert.InDelta(t, 8.0, totals.Driving, 1e-9)

	// No gaps, no overlaps: each entry starts where the previous ended.
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, entries[i-1].End, entries[i].Start)
	}
}

func TestBuildDailyGrid_ClipsEventSpanningMidnight(t *testing.T) {
	// Driving began the previous evening; the grid starts the day in
	// driving status without inventing an earlier entry.
	events := []domain.DutyEvent{
		ev(domain.StatusDriving, day0.Add(-2*time.Hour)),
		ev(domain.StatusOffDuty, day0.Add(8*time.Hour)),
	}

	entries, totals := hos.BuildDailyGrid(events, day0, day0.Add(48*time.Hour))

	require.Len(t, entries, 2)
	assert.Equal(t, domain.StatusDriving, entries[0].Status)
	assert.Equal(t, day0, entries[0].Start)
	assert.Equal(t, day0.Add(8*time.Hour), entries[0].End)
	assert.InDelta(t, 8.0, totals.Driving, 1e-9)
	assert.InDelta(t, 16.0, totals.OffDuty, 1e-9)
}

func TestBuildDailyGrid_CurrentDayCapsAtNow(t *testing.T) {
	events := []domain.DutyEvent{ev(domain.StatusDriving, day0.Add(6 * time.Hour))}
	now := day0.Add(12 * time.Hour)

	entries, totals := hos.BuildDailyGrid(events, day0, now)

	require.Len(t, entries, 2)
	assert.Equal(t, now, entries[1].End)
	assert.InDelta(t, 12.0, totals.Sum(), 1e-9)
}

func TestBuildDailyGrid_CarriesLocationAndNotes(t *testing.T) {
	loc := domain.Location{Lat: 41.88, Lng: -87.63, Address: "Chicago, IL"}
	events := []domain.DutyEvent{
		{Status: domain.StatusDriving, Timestamp: day0.Add(6 * time.Hour), Location: loc, Notes: "Departed terminal"},
	}

	entries, _ := hos.BuildDailyGrid(events, day0, day0.Add(48*time.Hour))

	require.Len(t, entries, 2)
	assert.Equal(t, loc, entries[1].Location)
	assert.Equal(t, "Departed terminal", entries[1].Notes)
}

func TestDayStart_MidnightUTC(t *testing.T) {
	got := hos.DayStart(time.Date(2025, 6, 2, 17, 45, 12, 0, time.UTC))
	assert.Equal(t, day0, got)
}
