package hos

import (
	"time"

	"github.com/freighthos/eld-engine/internal/domain"
)

// BuildDailyGrid replays the driver's duty events into the 24-hour grid for
// the day starting at dayStart (midnight UTC). Intervals are clipped to the
// midnight boundaries and the leading gap is filled with the status active
// at midnight (off_duty when the ledger is empty), so the per-status totals
// always sum to the covered portion of the day, the full 24.0h once the day
// has elapsed.
//
// events must be sorted ascending and should include the last event at or
// before dayStart so the midnight status is known. now caps the grid for the
// current day; for past days pass any instant at or after the day's end.
func BuildDailyGrid(events []domain.DutyEvent, dayStart, now time.Time) ([]domain.LogEntry, domain.LogTotals) {
	dayEnd := dayStart.Add(24 * time.Hour)
	if now.Before(dayEnd) {
		dayEnd = now
	}
	if !dayEnd.After(dayStart) {
		return []domain.LogEntry{}, domain.LogTotals{}
	}

	entries := []domain.LogEntry{}
	cursor := dayStart
	status := StatusAt(events, dayStart)
	var loc domain.Location
	var notes string
	if i := lastIndexAtOrBefore(events, dayStart); i >= 0 {
		loc = events[i].Location
		notes = events[i].Notes
	}

	for _, e := range events {
		if !e.Timestamp.After(dayStart) {
			continue
		}
		if !e.Timestamp.Before(dayEnd) {
			break
		}
		if e.Timestamp.After(cursor) {
			entries = append(entries, domain.LogEntry{
				Status: status, Start: cursor, End: e.Timestamp,
				Location: loc, Notes: notes,
			})
		}
		cursor = e.Timestamp
		status = e.Status
		loc = e.Location
		notes = e.Notes
	}
	if dayEnd.After(cursor) {
		entries = append(entries, domain.LogEntry{
			Status: status, Start: cursor, End: dayEnd,
			Location: loc, Notes: notes,
		})
	}

	var totals domain.LogTotals
	for _, e := range entries {
		h := e.Hours()
		switch e.Status {
		case domain.StatusOffDuty:
			totals.OffDuty += h
		case domain.StatusSleeperBerth:
			totals.SleeperBerth += h
		case domain.StatusDriving:
			totals.Driving += h
		case domain.StatusOnDutyNotDriving:
			totals.OnDutyNotDriving += h
		}
	}
	return entries, totals
}

// lastIndexAtOrBefore returns the index of the latest event with
// timestamp <= t, or -1.
func lastIndexAtOrBefore(events []domain.DutyEvent, t time.Time) int {
	idx := -1
	for i, e := range events {
		if e.Timestamp.After(t) {
			break
		}
		idx = i
	}
	return idx
}

// DayStart returns midnight UTC of the day containing t.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
