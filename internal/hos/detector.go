package hos

import (
	"fmt"
	"time"

	"github.com/freighthos/eld-engine/internal/domain"
)

// Assessment is the violation detector's verdict for one driver at one
// instant. It is advisory, derived state: recomputed from the ledger on
// every call and never cached.
type Assessment struct {
	CanDrive   bool     `json:"can_drive"`
	Violations []string `json:"violations"`
	Warnings   []string `json:"warnings"`

	CycleHoursUsed    float64 `json:"current_cycle_hours"`
	CycleRemaining    float64 `json:"cycle_time_remaining"`
	DrivingToday      float64 `json:"daily_driving_hours"`
	DrivingRemaining  float64 `json:"driving_time_remaining"`
	OnDutyToday       float64 `json:"daily_on_duty_hours"`
	OnDutyRemaining   float64 `json:"on_duty_time_remaining"`
	ContinuousDriving float64 `json:"continuous_driving_hours"`

	// LastBreak is the end of the most recent qualifying break (>= 30m of
	// off_duty/sleeper_berth), nil if the driver has not taken one.
	LastBreak *time.Time `json:"last_break_time"`
	// NextRequiredBreak is when the 30-minute break becomes mandatory if the
	// driver keeps driving, nil when not currently driving.
	NextRequiredBreak *time.Time `json:"next_required_break"`
}

// Evaluate checks the driver's ledger against the HOS rules as of the given
// instant. events must be sorted ascending by timestamp. Non-compliance is a
// normal result value, never an error.
func Evaluate(events []domain.DutyEvent, asOf time.Time, rules Rules) Assessment {
	dayStart, _ := dayWindow(asOf)

	a := Assessment{
		Violations:     []string{},
		Warnings:       []string{},
		CycleHoursUsed: CycleHoursUsed(events, asOf, rules),
		DrivingToday:   HoursIn(events, domain.StatusDriving, dayStart, asOf),
	}
	a.OnDutyToday = a.DrivingToday + HoursIn(events, domain.StatusOnDutyNotDriving, dayStart, asOf)
	a.CycleRemaining = clampZero(rules.MaxCycleHours - a.CycleHoursUsed)
	a.DrivingRemaining = clampZero(rules.MaxDailyDriving - a.DrivingToday)
	a.OnDutyRemaining = clampZero(rules.MaxDailyOnDuty - a.OnDutyToday)

	// Cycle limit: 70h over the trailing 8 days, warn at 90%.
	if a.CycleHoursUsed >= rules.MaxCycleHours {
		a.Violations = append(a.Violations, fmt.Sprintf(
			"Exceeded %.0f-hour/%d-day cycle limit: %.1fh used",
			rules.MaxCycleHours, int(rules.CyclePeriod.Hours()/24), a.CycleHoursUsed))
	} else if a.CycleHoursUsed >= rules.MaxCycleHours*rules.WarningRatio {
		a.Warnings = append(a.Warnings, fmt.Sprintf(
			"Approaching %.0f-hour cycle limit: %.1fh used",
			rules.MaxCycleHours, a.CycleHoursUsed))
	}

	// Daily driving: 11h, warn at 90%.
	if a.DrivingToday >= rules.MaxDailyDriving {
		a.Violations = append(a.Violations, fmt.Sprintf(
			"Exceeded %.0f-hour daily driving limit: %.1fh",
			rules.MaxDailyDriving, a.DrivingToday))
	} else if a.DrivingToday >= rules.MaxDailyDriving*rules.WarningRatio {
		a.Warnings = append(a.Warnings, fmt.Sprintf(
			"Approaching %.0f-hour daily driving limit: %.1fh",
			rules.MaxDailyDriving, a.DrivingToday))
	}

	// Daily on-duty: 14h.
	if a.OnDutyToday >= rules.MaxDailyOnDuty {
		a.Violations = append(a.Violations, fmt.Sprintf(
			"Exceeded %.0f-hour daily on-duty limit: %.1fh",
			rules.MaxDailyOnDuty, a.OnDutyToday))
	}

	ivs := intervals(events, asOf)
	a.ContinuousDriving, a.LastBreak = drivingSinceBreak(ivs, rules)

	// 30-minute break after 8h continuous driving.
	if a.ContinuousDriving >= rules.BreakAfterDriving {
		a.Violations = append(a.Violations, fmt.Sprintf(
			"Required %.0f-minute break after %.0fh continuous driving",
			rules.MinBreak.Minutes(), rules.BreakAfterDriving))
	}
	if StatusAt(events, asOf) == domain.StatusDriving {
		next := asOf.Add(time.Duration((rules.BreakAfterDriving - a.ContinuousDriving) * float64(time.Hour)))
		if next.Before(asOf) {
			next = asOf
		}
		a.NextRequiredBreak = &next
	}

	// 10h off-duty rest between shifts. The working shift starts at the end
	// of the last contiguous rest span of at least MinOffDutyRest (or at the
	// ledger's first event); on-duty time past the daily on-duty window
	// without such a reset means the driver skipped the required rest.
	if StatusAt(events, asOf).OnDuty() {
		start := shiftStart(ivs, rules)
		if asOf.Sub(start).Hours() > rules.MaxDailyOnDuty {
			a.Violations = append(a.Violations, fmt.Sprintf(
				"Must have at least %.0f hours off duty between shifts: %.1fh since last qualifying rest",
				rules.MinOffDutyRest.Hours(), asOf.Sub(start).Hours()))
		}
	}

	a.CanDrive = len(a.Violations) == 0
	return a
}

// drivingSinceBreak returns the driving hours accumulated since the end of
// the last qualifying break (a rest interval of at least rules.MinBreak),
// and when that break ended.
func drivingSinceBreak(ivs []statusInterval, rules Rules) (float64, *time.Time) {
	var driving time.Duration
	var lastBreak *time.Time

	for _, iv := range ivs {
		switch {
		case iv.status == domain.StatusDriving:
			driving += iv.duration()
		case iv.status.Rest() && iv.duration() >= rules.MinBreak:
			driving = 0
			end := iv.end
			lastBreak = &end
		}
	}
	return driving.Hours(), lastBreak
}

// shiftStart returns the instant the driver's current working shift began:
// the end of the most recent contiguous rest span of at least
// rules.MinOffDutyRest. A contiguous rest span reaching back to the ledger's
// first event also qualifies (pre-history counts as off_duty). When no
// qualifying span exists the shift began with the ledger's first interval.
func shiftStart(ivs []statusInterval, rules Rules) time.Time {
	if len(ivs) == 0 {
		return time.Time{}
	}

	var rest time.Duration
	var spanEnd time.Time
	for i := len(ivs) - 1; i >= 0; i-- {
		iv := ivs[i]
		if !iv.status.Rest() {
			rest = 0
			spanEnd = time.Time{}
			continue
		}
		if spanEnd.IsZero() {
			spanEnd = iv.end
		}
		rest += iv.duration()
		if rest >= rules.MinOffDutyRest {
			return spanEnd
		}
	}
	// Rest span at the ledger's start extends into pre-history.
	if !spanEnd.IsZero() && ivs[0].status.Rest() && rest > 0 {
		return spanEnd
	}
	return ivs[0].start
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
