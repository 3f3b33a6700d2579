package domain

import (
	"time"

	"github.com/google/uuid"
)

// DailyLog is the certifiable 24-hour grid for one driver and one calendar
// day. Entries and totals are derived from the duty ledger on every read;
// only the certification state is persisted. For any day fully covered by
// events the per-status totals sum to exactly 24 hours: each event is treated
// as open-ended until the next event or midnight, so there are no gaps and
// no overlaps.
type DailyLog struct {
	ID          uuid.UUID  `json:"id"`
	DriverID    uuid.UUID  `json:"driver_id"`
	Date        time.Time  `json:"log_date"` // midnight UTC of the log day
	Entries     []LogEntry `json:"entries"`
	Totals      LogTotals  `json:"totals"`
	IsCertified bool       `json:"is_certified"`
	CertifiedAt *time.Time `json:"certified_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// LogEntry is one contiguous duty-status interval within a daily log,
// clipped to the day's midnight boundaries.
type LogEntry struct {
	Status   DutyStatus `json:"duty_status"`
	Start    time.Time  `json:"start_time"`
	End      time.Time  `json:"end_time"`
	Location Location   `json:"location,omitempty"`
	Notes    string     `json:"remarks,omitempty"`
}

// Hours returns the entry duration in hours.
func (e LogEntry) Hours() float64 {
	return e.End.Sub(e.Start).Hours()
}

// LogTotals holds the per-status hour totals for a daily log.
type LogTotals struct {
	OffDuty          float64 `json:"off_duty"`
	SleeperBerth     float64 `json:"sleeper_berth"`
	Driving          float64 `json:"driving"`
	OnDutyNotDriving float64 `json:"on_duty_not_driving"`
}

// Sum returns the total of all four statuses, 24.0 for a fully covered day.
func (t LogTotals) Sum() float64 {
	return t.OffDuty + t.SleeperBerth + t.Driving + t.OnDutyNotDriving
}
