package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/hos"
	"github.com/freighthos/eld-engine/internal/repo"
)

// LogService produces the certifiable daily logs. Entries and totals are
// rebuilt from the duty ledger on every read; only certification state is
// read from or written to the daily_logs table.
type LogService struct {
	events repo.EventRepo
	logs   repo.DailyLogRepo
	rules  hos.Rules
	now    func() time.Time
}

// NewLogService constructs a LogService backed by the provided repos.
func NewLogService(events repo.EventRepo, logs repo.DailyLogRepo, rules hos.Rules) *LogService {
	return &LogService{events: events, logs: logs, rules: rules, now: time.Now}
}

// Daily returns the driver's log for one calendar day (UTC). The grid is
// derived on the fly, so a day with no ledger events yields a single
// off-duty entry covering the whole day. Reading never creates a log row;
// a missing row just means the day is uncertified.
func (s *LogService) Daily(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error) {
	day := hos.DayStart(date)
	now := s.now().UTC()
	if day.After(hos.DayStart(now)) {
		return domain.DailyLog{}, fmt.Errorf("service.LogService.Daily: %w: log date %s is in the future",
			domain.ErrValidation, day.Format("2006-01-02"))
	}

	events, err := s.events.ListCovering(ctx, driverID, day, day.Add(24*time.Hour))
	if err != nil {
		return domain.DailyLog{}, fmt.Errorf("service.LogService.Daily: %w", err)
	}
	entries, totals := hos.BuildDailyGrid(events, day, now)

	log := domain.DailyLog{
		DriverID: driverID,
		Date:     day,
		Entries:  entries,
		Totals:   totals,
	}
	row, err := s.logs.Get(ctx, driverID, day)
	switch {
	case err == nil:
		log.ID = row.ID
		log.IsCertified = row.IsCertified
		log.CertifiedAt = row.CertifiedAt
		log.CreatedAt = row.CreatedAt
		log.UpdatedAt = row.UpdatedAt
	case errors.Is(err, domain.ErrNotFound):
		// Never certified, nothing persisted for this day.
	default:
		return domain.DailyLog{}, fmt.Errorf("service.LogService.Daily: %w", err)
	}
	return log, nil
}

// Today returns the driver's log for the current UTC day.
func (s *LogService) Today(ctx context.Context, driverID uuid.UUID) (domain.DailyLog, error) {
	return s.Daily(ctx, driverID, s.now().UTC())
}

// Range returns one log per day in [from, to], ascending. Days without
// events still appear, as all-off-duty grids.
func (s *LogService) Range(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLog, error) {
	from, to = hos.DayStart(from), hos.DayStart(to)
	if to.Before(from) {
		return nil, fmt.Errorf("service.LogService.Range: %w: range end before start", domain.ErrValidation)
	}
	const maxRangeDays = 31
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("service.LogService.Range: %w: range longer than %d days", domain.ErrValidation, maxRangeDays)
	}

	logs := []domain.DailyLog{}
	for day := from; !day.After(to); day = day.Add(24 * time.Hour) {
		log, err := s.Daily(ctx, driverID, day)
		if err != nil {
			return nil, fmt.Errorf("service.LogService.Range: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// Week returns the trailing seven days of logs ending today, ascending.
func (s *LogService) Week(ctx context.Context, driverID uuid.UUID) ([]domain.DailyLog, error) {
	today := hos.DayStart(s.now().UTC())
	return s.Range(ctx, driverID, today.Add(-6*24*time.Hour), today)
}

// DaySummary is one day's duty totals inside an HOS summary.
type DaySummary struct {
	Date         string  `json:"date"`
	DrivingHours float64 `json:"driving_hours"`
	OnDutyHours  float64 `json:"on_duty_hours"`
}

// HOSSummary is the driver's cycle standing: the live assessment plus the
// per-day on-duty totals across the rolling cycle window.
type HOSSummary struct {
	Assessment hos.Assessment `json:"assessment"`
	CycleDays  []DaySummary   `json:"cycle_days"`
}

// Summary assembles the HOS summary as of now.
func (s *LogService) Summary(ctx context.Context, driverID uuid.UUID) (HOSSummary, error) {
	now := s.now().UTC()
	from := now.Add(-s.rules.CyclePeriod)

	events, err := s.events.ListCovering(ctx, driverID, from, now)
	if err != nil {
		return HOSSummary{}, fmt.Errorf("service.LogService.Summary: %w", err)
	}

	summary := HOSSummary{
		Assessment: hos.Evaluate(events, now, s.rules),
		CycleDays:  []DaySummary{},
	}

	days := int(s.rules.CyclePeriod / (24 * time.Hour))
	today := hos.DayStart(now)
	for i := days - 1; i >= 0; i-- {
		day := today.Add(-time.Duration(i) * 24 * time.Hour)
		end := day.Add(24 * time.Hour)
		if end.After(now) {
			end = now
		}
		driving := hos.HoursIn(events, domain.StatusDriving, day, end)
		onDuty := driving + hos.HoursIn(events, domain.StatusOnDutyNotDriving, day, end)
		summary.CycleDays = append(summary.CycleDays, DaySummary{
			Date:         day.Format("2006-01-02"),
			DrivingHours: driving,
			OnDutyHours:  onDuty,
		})
	}
	return summary, nil
}

// Certify marks a day's log as certified. Certification is one-way and
// freezes the day: later events dated into it are rejected by the ledger.
//
// Returns domain.ErrValidation for a future date and
// domain.ErrAlreadyCertified if the day was certified before.
func (s *LogService) Certify(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error) {
	day := hos.DayStart(date)
	now := s.now().UTC()
	if day.After(hos.DayStart(now)) {
		return domain.DailyLog{}, fmt.Errorf("service.LogService.Certify: %w: cannot certify a future day",
			domain.ErrValidation)
	}

	// Ensure the row exists before the one-way flip.
	if _, err := s.logs.GetOrCreate(ctx, driverID, day); err != nil {
		return domain.DailyLog{}, fmt.Errorf("service.LogService.Certify: %w", err)
	}
	if _, err := s.logs.Certify(ctx, driverID, day); err != nil {
		return domain.DailyLog{}, fmt.Errorf("service.LogService.Certify: %w", err)
	}
	return s.Daily(ctx, driverID, day)
}
