package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/freighthos/eld-engine/internal/domain"
)

// DailyLogRepo persists the certification state of daily logs. Entries and
// totals are never stored: the service layer rebuilds them from the duty
// ledger on every read, so a log row carries only identity and certification.
type DailyLogRepo interface {
	// GetOrCreate returns the log row for the driver and day, inserting an
	// uncertified row if none exists yet. date must be midnight UTC.
	GetOrCreate(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error)

	// Get returns the log row for the driver and day, or domain.ErrNotFound.
	Get(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error)

	// Certify marks the log certified. Certification is one-way: returns
	// domain.ErrAlreadyCertified if the row is already certified.
	Certify(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error)

	// IsCertified reports whether a certified log row exists for the day.
	// A missing row counts as uncertified.
	IsCertified(ctx context.Context, driverID uuid.UUID, date time.Time) (bool, error)

	// ListRange returns the log rows for days in [from, to], ascending by
	// date. Days with no row are simply absent from the result.
	ListRange(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLog, error)
}

type pgDailyLogRepo struct {
	db db
}

// NewDailyLogRepo constructs a DailyLogRepo backed by the provided connection.
func NewDailyLogRepo(db db) DailyLogRepo {
	return &pgDailyLogRepo{db: db}
}

const dailyLogColumns = `id, driver_id, log_date, is_certified, certified_at, created_at, updated_at`

func (r *pgDailyLogRepo) GetOrCreate(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error) {
	// The upsert touches updated_at so RETURNING always yields the row,
	// whether it was just inserted or already existed.
	const q = `
		INSERT INTO daily_logs (driver_id, log_date)
		VALUES (@driver_id, @log_date)
		ON CONFLICT (driver_id, log_date)
		DO UPDATE SET updated_at = now()
		RETURNING ` + dailyLogColumns

	args := pgx.NamedArgs{"driver_id": driverID, "log_date": date}
	log, err := scanDailyLog(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.DailyLog{}, fmt.Errorf("repo.DailyLogRepo.GetOrCreate: %w", err)
	}
	return log, nil
}

func (r *pgDailyLogRepo) Get(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error) {
	const q = `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE driver_id = @driver_id AND log_date = @log_date`

	log, err := scanDailyLog(r.db.QueryRow(ctx, q, pgx.NamedArgs{"driver_id": driverID, "log_date": date}))
	if err != nil {
		return domain.DailyLog{}, fmt.Errorf("repo.DailyLogRepo.Get: %w", err)
	}
	return log, nil
}

func (r *pgDailyLogRepo) Certify(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error) {
	const q = `
		UPDATE daily_logs
		SET is_certified = true,
		    certified_at = now(),
		    updated_at   = now()
		WHERE driver_id = @driver_id AND log_date = @log_date AND is_certified = false
		RETURNING ` + dailyLogColumns

	args := pgx.NamedArgs{"driver_id": driverID, "log_date": date}
	log, err := scanDailyLog(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			certified, cerr := r.IsCertified(ctx, driverID, date)
			if cerr != nil {
				return domain.DailyLog{}, fmt.Errorf("repo.DailyLogRepo.Certify: %w", cerr)
			}
			if certified {
				return domain.DailyLog{}, fmt.Errorf("repo.DailyLogRepo.Certify: %w", domain.ErrAlreadyCertified)
			}
			return domain.DailyLog{}, fmt.Errorf("repo.DailyLogRepo.Certify: %w", domain.ErrNotFound)
		}
		return domain.DailyLog{}, fmt.Errorf("repo.DailyLogRepo.Certify: %w", err)
	}
	return log, nil
}

func (r *pgDailyLogRepo) IsCertified(ctx context.Context, driverID uuid.UUID, date time.Time) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM daily_logs
			WHERE driver_id = @driver_id AND log_date = @log_date AND is_certified = true
		)`

	var certified bool
	args := pgx.NamedArgs{"driver_id": driverID, "log_date": date}
	if err := r.db.QueryRow(ctx, q, args).Scan(&certified); err != nil {
		return false, fmt.Errorf("repo.DailyLogRepo.IsCertified: %w", err)
	}
	return certified, nil
}

func (r *pgDailyLogRepo) ListRange(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLog, error) {
	const q = `
		SELECT ` + dailyLogColumns + `
		FROM daily_logs
		WHERE driver_id = @driver_id AND log_date BETWEEN @from AND @to
		ORDER BY log_date ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"driver_id": driverID, "from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.DailyLogRepo.ListRange: %w", err)
	}
	defer rows.Close()

	logs := []domain.DailyLog{}
	for rows.Next() {
		log, err := scanDailyLog(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.DailyLogRepo.ListRange: scan: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DailyLogRepo.ListRange: rows: %w", err)
	}
	return logs, nil
}

func scanDailyLog(s scanner) (domain.DailyLog, error) {
	var (
		l        domain.DailyLog
		id       pgtype.UUID
		driverID pgtype.UUID
		date     pgtype.Date
	)
	err := s.Scan(&id, &driverID, &date, &l.IsCertified, &l.CertifiedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DailyLog{}, domain.ErrNotFound
		}
		return domain.DailyLog{}, err
	}
	l.ID = uuid.UUID(id.Bytes)
	l.DriverID = uuid.UUID(driverID.Bytes)
	l.Date = time.Date(date.Time.Year(), date.Time.Month(), date.Time.Day(), 0, 0, 0, 0, time.UTC)
	return l, nil
}
