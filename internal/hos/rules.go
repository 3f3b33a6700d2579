// Package hos implements the Hours-of-Service arithmetic: the duty clock,
// the violation detector, and the daily 24-hour grid builder.
//
// Everything in this package is a pure function over ordered duty-event
// slices: no I/O, no persisted state. Derived figures (cycle hours,
// violations) are recomputed on every call so they can never drift from the
// underlying ledger.
package hos

import "time"

// Rules holds the HOS thresholds the engine enforces. The defaults are the
// US FMCSA property-carrying-driver rules; regulatory variants (passenger
// carrying, short haul) can be expressed by constructing a different Rules.
type Rules struct {
	// MaxCycleHours is the rolling on-duty cap (70h over CyclePeriod).
	MaxCycleHours float64
	// CyclePeriod is the trailing window for the cycle cap (8 days).
	CyclePeriod time.Duration
	// MaxDailyDriving caps driving hours per day (11h).
	MaxDailyDriving float64
	// MaxDailyOnDuty caps driving + on-duty-not-driving hours per day (14h).
	MaxDailyOnDuty float64
	// BreakAfterDriving is the continuous driving time that requires a
	// break (8h).
	BreakAfterDriving float64
	// MinBreak is the minimum qualifying break duration (30m).
	MinBreak time.Duration
	// MinOffDutyRest is the off-duty rest required between shifts (10h).
	MinOffDutyRest time.Duration
	// CycleRestart is the off-duty time that resets the cycle (34h).
	CycleRestart time.Duration
	// WarningRatio is the fraction of a limit at which a warning fires (0.9).
	WarningRatio float64

	// FuelIntervalMiles is the maximum distance between fuel stops (1000mi).
	FuelIntervalMiles float64
	// PickupDropoffDuration is the fixed loading/unloading time (1h).
	PickupDropoffDuration time.Duration
	// FuelStopDuration is the planned fuel stop time (30m).
	FuelStopDuration time.Duration
}

// DefaultRules returns the FMCSA property-carrying defaults.
func DefaultRules() Rules {
	return Rules{
		MaxCycleHours:         70,
		CyclePeriod:           8 * 24 * time.Hour,
		MaxDailyDriving:       11,
		MaxDailyOnDuty:        14,
		BreakAfterDriving:     8,
		MinBreak:              30 * time.Minute,
		MinOffDutyRest:        10 * time.Hour,
		CycleRestart:          34 * time.Hour,
		WarningRatio:          0.9,
		FuelIntervalMiles:     1000,
		PickupDropoffDuration: time.Hour,
		FuelStopDuration:      30 * time.Minute,
	}
}
