package planner

import (
	"fmt"
	"time"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/hos"
)

// timeEps absorbs float rounding when comparing fractional hours.
const timeEps = 1e-9

// DriverState is the planning-time snapshot of the driver's duty clock.
type DriverState struct {
	CycleHoursUsed float64
	CurrentStatus  domain.DutyStatus
}

// Input is one stop-planning request. Legs is the ordered route;
// PickupIndex is the number of legs driven before the pickup stop (0 means
// the trip starts at the pickup). The dropoff is always at the route end.
type Input struct {
	Legs        []domain.Leg
	PickupIndex int
	State       DriverState
	StartTime   time.Time
}

// Plan is the planner's result. Non-compliance is a normal outcome: the
// schedule is always produced, with Compliant=false and the violation
// strings attached when the constraints could not be met legally.
type Plan struct {
	Stops             []domain.Stop
	TotalDistance     float64
	EstimatedDuration time.Duration
	EndTime           time.Time
	Violations        []string
	Warnings          []string
	Compliant         bool
}

// stopKind tags a candidate stop for the merge step: mandatory stops are
// HOS-required (break, rest, pickup, dropoff), optional stops (fuel) may be
// folded into a mandatory stop on the same leg instead of standing alone.
type stopKind int

const (
	kindMandatory stopKind = iota
	kindOptional
)

// candidate is a stop emitted during the simulation walk, before the merge
// and sequencing passes.
type candidate struct {
	kind     stopKind
	stopType domain.StopType
	leg      int
	arrival  time.Time
	duration time.Duration
	location domain.Location
	distance float64 // miles since the previous stop
	notes    string
}

// PlanStops walks the leg sequence as a continuous driving timeline with a
// simulated duty clock and returns the stop schedule. The walk is
// deterministic: identical inputs produce identical plans.
func PlanStops(in Input, rules hos.Rules) Plan {
	w := &walker{
		rules:     rules,
		now:       in.StartTime,
		cycleUsed: in.State.CycleHoursUsed,
	}

	plan := Plan{Violations: []string{}, Warnings: []string{}}

	// A driver already at or over the cycle cap cannot legally drive at all:
	// schedule the restart first, flag the plan, and keep going.
	if w.cycleUsed >= rules.MaxCycleHours {
		start := startLocation(in)
		w.insertRestart(start, 0)
	}

	if in.PickupIndex == 0 {
		w.insertDock(domain.StopPickup, startLocation(in), 0)
	}

	for i, leg := range in.Legs {
		w.driveLeg(i, leg)
		if i+1 == in.PickupIndex {
			w.insertDock(domain.StopPickup, leg.To, i)
		}
	}
	if last := len(in.Legs) - 1; last >= 0 {
		w.insertDock(domain.StopDropoff, in.Legs[last].To, last)
	}

	plan.Stops = sequence(w.candidates)
	plan.TotalDistance = w.totalMiles
	plan.EndTime = w.now
	plan.EstimatedDuration = w.now.Sub(in.StartTime)
	plan.Violations = append(plan.Violations, w.violations...)
	plan.Warnings = append(plan.Warnings, w.warnings...)
	plan.Compliant = len(plan.Violations) == 0
	return plan
}

func startLocation(in Input) domain.Location {
	if len(in.Legs) > 0 {
		return in.Legs[0].From
	}
	return domain.Location{}
}

// walker is the simulated duty clock state advanced across the route.
type walker struct {
	rules hos.Rules

	now        time.Time
	totalMiles float64

	drivingToday float64 // hours driven since the last daily reset
	onDutyToday  float64 // on-duty hours since the last daily reset
	continuous   float64 // driving hours since the last qualifying break
	cycleUsed    float64 // cycle hours including this plan's simulated duty
	sinceFuel    float64 // miles since the last fueling opportunity
	sinceStop    float64 // miles since the last emitted stop

	candidates []candidate
	violations []string
	warnings   []string
}

// decision is the resolved outcome of one trigger point on a leg: which
// stop to insert and whether it absorbs a due fuel stop. Keeping the
// tie-break rules in one resolver (rather than conditionals scattered
// through the walk) makes the ordering auditable.
type decision int

const (
	decideRestart decision = iota
	decideRest
	decideBreak
	decideFuel
	decideDeferFuel // fuel due, but a mandatory stop later this leg absorbs it
)

// resolve picks the stop for the earliest fired trigger. step is the hours
// actually advanced, legRemaining the drive hours left on the leg after the
// advance. Safety-mandatory stops dominate: when the fuel interval and a
// mandatory break/rest both fall within the same leg, the mandatory stop
// subsumes the fuel stop.
func resolve(t triggers, step, legRemaining float64) decision {
	switch {
	case t.toCycle <= step+timeEps:
		return decideRestart
	case t.toRest <= step+timeEps:
		return decideRest
	case t.toBreak <= step+timeEps:
		return decideBreak
	}
	// Only the fuel trigger fired. Defer it when a mandatory stop is due
	// before the leg ends; that stop will absorb the fueling.
	if t.mandatory() <= legRemaining+step {
		return decideDeferFuel
	}
	return decideFuel
}

// triggers holds the hours until each rule threshold fires.
type triggers struct {
	toBreak float64
	toRest  float64
	toCycle float64
	toFuel  float64
}

func (t triggers) mandatory() float64 {
	return minHours(t.toBreak, t.toRest, t.toCycle)
}

// driveLeg advances through one leg, emitting stops at every point where a
// rule threshold would be crossed before the leg ends.
func (w *walker) driveLeg(legIdx int, leg domain.Leg) {
	legHours := leg.Duration.Hours()
	legMiles := leg.DistanceMiles
	if legHours <= timeEps {
		// Degenerate leg: distance with no drive time.
		w.totalMiles += legMiles
		w.sinceFuel += legMiles
		w.sinceStop += legMiles
		return
	}
	speed := legMiles / legHours

	fuelDeferred := false
	remaining := legHours
	for remaining > timeEps {
		t := triggers{
			toBreak: w.rules.BreakAfterDriving - w.continuous,
			toRest:  minHours(w.rules.MaxDailyDriving-w.drivingToday, w.rules.MaxDailyOnDuty-w.onDutyToday),
			toCycle: w.rules.MaxCycleHours - w.cycleUsed,
			toFuel:  (w.rules.FuelIntervalMiles - w.sinceFuel) / speed,
		}
		step := minHours(remaining, t.toBreak, t.toRest, t.toCycle)
		if !fuelDeferred {
			step = minHours(step, t.toFuel)
		}
		if step < 0 {
			step = 0
		}

		w.advance(step, speed)
		remaining -= step

		if remaining <= timeEps {
			return // leg completed; any threshold exactly at the boundary waits
		}

		at := w.legPoint(leg, 1-(remaining/legHours))
		fuelDue := fuelDeferred || t.toFuel <= remaining+step

		switch resolve(t, step, remaining) {
		case decideRestart:
			w.insertRestart(at, legIdx)
			fuelDeferred = false
		case decideRest:
			w.insertRest(at, legIdx, fuelDue)
			fuelDeferred = false
		case decideBreak:
			w.insertBreak(at, legIdx, fuelDue)
			fuelDeferred = false
		case decideDeferFuel:
			fuelDeferred = true
		case decideFuel:
			w.insertFuel(at, legIdx)
		}
	}
}

// advance moves the simulated clock through step hours of driving.
func (w *walker) advance(stepHours, speed float64) {
	if stepHours <= 0 {
		return
	}
	miles := stepHours * speed
	w.now = w.now.Add(time.Duration(stepHours * float64(time.Hour)))
	w.drivingToday += stepHours
	w.onDutyToday += stepHours
	w.continuous += stepHours
	w.cycleUsed += stepHours
	w.totalMiles += miles
	w.sinceFuel += miles
	w.sinceStop += miles
}

// legPoint interpolates a location along the leg at the given fraction.
func (w *walker) legPoint(leg domain.Leg, frac float64) domain.Location {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return domain.Location{
		Lat: leg.From.Lat + (leg.To.Lat-leg.From.Lat)*frac,
		Lng: leg.From.Lng + (leg.To.Lng-leg.From.Lng)*frac,
	}
}

// insertDock emits a pickup or dropoff stop. Loading time is on duty.
func (w *walker) insertDock(t domain.StopType, at domain.Location, legIdx int) {
	d := w.rules.PickupDropoffDuration
	w.emit(candidate{
		kind:     kindMandatory,
		stopType: t,
		leg:      legIdx,
		arrival:  w.now,
		duration: d,
		location: at,
	})
	w.now = w.now.Add(d)
	w.onDutyToday += d.Hours()
	w.cycleUsed += d.Hours()
}

// insertBreak emits the mandatory 30-minute break. Break time is off duty:
// it resets the continuous-driving counter but not the daily totals.
func (w *walker) insertBreak(at domain.Location, legIdx int, fuelDue bool) {
	c := candidate{
		kind:     kindMandatory,
		stopType: domain.StopBreak,
		leg:      legIdx,
		arrival:  w.now,
		duration: w.rules.MinBreak,
		location: withName(at, "Break Stop"),
	}
	if fuelDue {
		c.notes = "Combined with fueling"
		w.sinceFuel = 0
	}
	w.emit(c)
	w.now = w.now.Add(c.duration)
	w.continuous = 0
}

// insertRest emits the 10-hour off-duty rest and resets the daily counters.
func (w *walker) insertRest(at domain.Location, legIdx int, fuelDue bool) {
	c := candidate{
		kind:     kindMandatory,
		stopType: domain.StopRest,
		leg:      legIdx,
		arrival:  w.now,
		duration: w.rules.MinOffDutyRest,
		location: withName(at, "Rest Stop"),
	}
	if fuelDue {
		c.notes = "Combined with fueling"
		w.sinceFuel = 0
	}
	w.emit(c)
	w.now = w.now.Add(c.duration)
	w.drivingToday = 0
	w.onDutyToday = 0
	w.continuous = 0
}

// insertRestart emits the 34-hour cycle restart. The plan is flagged
// non-compliant (the driver cannot complete the trip inside the current
// cycle) and warned, since the restart materially changes the delivery ETA.
func (w *walker) insertRestart(at domain.Location, legIdx int) {
	w.emit(candidate{
		kind:     kindMandatory,
		stopType: domain.StopRest,
		leg:      legIdx,
		arrival:  w.now,
		duration: w.rules.CycleRestart,
		location: withName(at, "Cycle Restart"),
		notes:    fmt.Sprintf("%.0f-hour restart to reset the duty cycle", w.rules.CycleRestart.Hours()),
	})
	w.violations = append(w.violations, fmt.Sprintf(
		"Trip exceeds the %.0f-hour/%d-day cycle limit: %.0f-hour restart required en route",
		w.rules.MaxCycleHours, int(w.rules.CyclePeriod.Hours()/24), w.rules.CycleRestart.Hours()))
	w.warnings = append(w.warnings, fmt.Sprintf(
		"Cycle restart adds %.0f hours to the delivery ETA", w.rules.CycleRestart.Hours()))
	w.now = w.now.Add(w.rules.CycleRestart)
	w.cycleUsed = 0
	w.drivingToday = 0
	w.onDutyToday = 0
	w.continuous = 0
	w.sinceFuel = 0
}

// insertFuel emits an optional fuel stop. Fueling is on duty.
func (w *walker) insertFuel(at domain.Location, legIdx int) {
	d := w.rules.FuelStopDuration
	w.emit(candidate{
		kind:     kindOptional,
		stopType: domain.StopFuel,
		leg:      legIdx,
		arrival:  w.now,
		duration: d,
		location: withName(at, "Fuel Stop"),
	})
	w.now = w.now.Add(d)
	w.onDutyToday += d.Hours()
	w.cycleUsed += d.Hours()
	w.sinceFuel = 0
}

func (w *walker) emit(c candidate) {
	c.distance = w.sinceStop
	w.sinceStop = 0
	w.candidates = append(w.candidates, c)
}

// sequence converts candidates into domain stops ordered by arrival.
// Candidates are emitted in timeline order, so arrival times are already
// monotonically non-decreasing.
func sequence(cands []candidate) []domain.Stop {
	stops := make([]domain.Stop, len(cands))
	for i, c := range cands {
		stops[i] = domain.Stop{
			Type:                 c.stopType,
			Status:               domain.StopPlanned,
			Location:             c.location,
			PlannedArrival:       c.arrival,
			PlannedDeparture:     c.arrival.Add(c.duration),
			DurationMinutes:      int(c.duration.Minutes()),
			DistanceFromPrevious: c.distance,
			IsMandatory:          c.kind == kindMandatory,
			Sequence:             i + 1,
		}
	}
	return stops
}

func withName(l domain.Location, name string) domain.Location {
	l.Name = name
	if l.Address == "" {
		l.Address = name
	}
	return l
}

func minHours(vs ...float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
