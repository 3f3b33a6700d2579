package hos

import (
	"time"

	"github.com/freighthos/eld-engine/internal/domain"
)

// StatusAt returns the duty status active at instant t: the status of the
// latest event with timestamp <= t, or off_duty when no such event exists.
// events must be sorted ascending by timestamp.
func StatusAt(events []domain.DutyEvent, t time.Time) domain.DutyStatus {
	status := domain.StatusOffDuty
	for _, e := range events {
		if e.Timestamp.After(t) {
			break
		}
		status = e.Status
	}
	return status
}

// HoursIn sums the hours during [windowStart, windowEnd) in which status was
// active. An event's interval runs from its own timestamp to the next event's
// timestamp, or to windowEnd for the last event; intervals are clipped to the
// window. The status in force before the first event is off_duty.
// events must be sorted ascending by timestamp.
func HoursIn(events []domain.DutyEvent, status domain.DutyStatus, windowStart, windowEnd time.Time) float64 {
	if !windowEnd.After(windowStart) {
		return 0
	}

	var total time.Duration
	for i, e := range events {
		intervalStart := e.Timestamp
		intervalEnd := windowEnd
		if i+1 < len(events) {
			intervalEnd = events[i+1].Timestamp
		}

		if intervalStart.Before(windowStart) {
			intervalStart = windowStart
		}
		if intervalEnd.After(windowEnd) {
			intervalEnd = windowEnd
		}
		if !intervalEnd.After(intervalStart) {
			continue
		}
		if e.Status == status {
			total += intervalEnd.Sub(intervalStart)
		}
	}

	// Leading gap before the first event counts as off_duty.
	if status == domain.StatusOffDuty {
		lead := windowEnd
		if len(events) > 0 && events[0].Timestamp.Before(windowEnd) {
			lead = events[0].Timestamp
		}
		if lead.After(windowStart) {
			total += lead.Sub(windowStart)
		}
	}

	return total.Hours()
}

// CycleHoursUsed sums driving + on-duty-not-driving hours over the trailing
// cycle window (rules.CyclePeriod, 192h by default) ending at asOf.
func CycleHoursUsed(events []domain.DutyEvent, asOf time.Time, rules Rules) float64 {
	windowStart := asOf.Add(-rules.CyclePeriod)
	return HoursIn(events, domain.StatusDriving, windowStart, asOf) +
		HoursIn(events, domain.StatusOnDutyNotDriving, windowStart, asOf)
}

// dayWindow returns the UTC midnight bounds of the day containing t.
func dayWindow(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// intervals materializes the event list into closed [start, end) status
// intervals up to the `until` instant, with the pre-history modeled as
// off_duty. Used by the detector's break and rest scans.
func intervals(events []domain.DutyEvent, until time.Time) []statusInterval {
	var out []statusInterval
	cursor := time.Time{}
	status := domain.StatusOffDuty

	for _, e := range events {
		if !e.Timestamp.Before(until) {
			break
		}
		if !cursor.IsZero() && e.Timestamp.After(cursor) {
			out = append(out, statusInterval{status: status, start: cursor, end: e.Timestamp})
		}
		cursor = e.Timestamp
		status = e.Status
	}
	if !cursor.IsZero() && until.After(cursor) {
		out = append(out, statusInterval{status: status, start: cursor, end: until})
	}
	return out
}

type statusInterval struct {
	status domain.DutyStatus
	start  time.Time
	end    time.Time
}

func (iv statusInterval) duration() time.Duration { return iv.end.Sub(iv.start) }
