package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/freighthos/eld-engine/internal/domain"
)

// DriverRepo defines the persistence operations for driver accounts.
type DriverRepo interface {
	// Create inserts a new driver and returns the persisted record.
	// Returns domain.ErrConflict if the email or employee number is taken.
	Create(ctx context.Context, d domain.Driver) (domain.Driver, error)

	// GetByID retrieves a driver by primary key.
	// Returns domain.ErrNotFound if no driver with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error)

	// GetByEmail retrieves a driver by login email.
	// Returns domain.ErrNotFound if no driver with that email exists.
	GetByEmail(ctx context.Context, email string) (domain.Driver, error)
}

type pgDriverRepo struct {
	db db
}

// NewDriverRepo constructs a DriverRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewDriverRepo(db db) DriverRepo {
	return &pgDriverRepo{db: db}
}

const driverColumns = `id, email, employee_number, first_name, last_name, password_hash, created_at, updated_at`

func (r *pgDriverRepo) Create(ctx context.Context, d domain.Driver) (domain.Driver, error) {
	const q = `
		INSERT INTO drivers (email, employee_number, first_name, last_name, password_hash)
		VALUES (@email, @employee_number, @first_name, @last_name, @password_hash)
		RETURNING ` + driverColumns

	args := pgx.NamedArgs{
		"email":           d.Email,
		"employee_number": d.EmployeeNumber,
		"first_name":      d.FirstName,
		"last_name":       d.LastName,
		"password_hash":   d.PasswordHash,
	}

	result, err := scanDriver(r.db.QueryRow(ctx, q, args))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.Driver{}, fmt.Errorf("repo.DriverRepo.Create: %w: email or employee number already registered", domain.ErrConflict)
		}
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgDriverRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	const q = `SELECT ` + driverColumns + ` FROM drivers WHERE id = @id`

	result, err := scanDriver(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgDriverRepo) GetByEmail(ctx context.Context, email string) (domain.Driver, error) {
	const q = `SELECT ` + driverColumns + ` FROM drivers WHERE email = @email`

	result, err := scanDriver(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByEmail: %w", err)
	}
	return result, nil
}

func scanDriver(s scanner) (domain.Driver, error) {
	var (
		d  domain.Driver
		id pgtype.UUID
	)
	err := s.Scan(&id, &d.Email, &d.EmployeeNumber, &d.FirstName, &d.LastName,
		&d.PasswordHash, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Driver{}, domain.ErrNotFound
		}
		return domain.Driver{}, err
	}
	d.ID = uuid.UUID(id.Bytes)
	return d, nil
}
