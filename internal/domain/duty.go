package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DutyStatus is one of the four federal duty statuses. Exactly one is active
// per driver at any instant; the active status at time T is the status of the
// latest DutyEvent with timestamp <= T.
type DutyStatus string

const (
	StatusOffDuty          DutyStatus = "off_duty"
	StatusSleeperBerth     DutyStatus = "sleeper_berth"
	StatusDriving          DutyStatus = "driving"
	StatusOnDutyNotDriving DutyStatus = "on_duty_not_driving"
)

// ParseDutyStatus validates a wire-format duty status string.
func ParseDutyStatus(s string) (DutyStatus, error) {
	switch DutyStatus(s) {
	case StatusOffDuty, StatusSleeperBerth, StatusDriving, StatusOnDutyNotDriving:
		return DutyStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown duty status %q", ErrValidation, s)
}

// OnDuty reports whether the status counts toward the 14-hour on-duty window
// and the 70-hour cycle (driving or on-duty-not-driving).
func (s DutyStatus) OnDuty() bool {
	return s == StatusDriving || s == StatusOnDutyNotDriving
}

// Rest reports whether the status qualifies as rest for break and off-duty
// rules (off-duty or sleeper berth).
func (s DutyStatus) Rest() bool {
	return s == StatusOffDuty || s == StatusSleeperBerth
}

// DutyEvent is a single duty status change in a driver's ledger.
// Events are append-only and strictly ordered by timestamp per driver.
// An event's interval runs from its own timestamp to the next event's
// timestamp (or to "now" if it is the latest).
type DutyEvent struct {
	ID        uuid.UUID  `json:"id"`
	DriverID  uuid.UUID  `json:"driver_id"`
	Status    DutyStatus `json:"duty_status"`
	Timestamp time.Time  `json:"timestamp"`
	Location  Location   `json:"location"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
