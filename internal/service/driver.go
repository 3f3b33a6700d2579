package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freighthos/eld-engine/internal/auth"
	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/hos"
	"github.com/freighthos/eld-engine/internal/repo"
)

// minPasswordLength matches the shortest password the registration form accepts.
const minPasswordLength = 8

// DriverService handles driver accounts and the driver-facing dashboards:
// registration, login, profile, live HOS status, and trip statistics.
type DriverService struct {
	drivers repo.DriverRepo
	trips   repo.TripRepo
	ledger  *LedgerService
	tokens  *auth.TokenManager
	now     func() time.Time
}

// NewDriverService constructs a DriverService.
func NewDriverService(drivers repo.DriverRepo, trips repo.TripRepo, ledger *LedgerService, tokens *auth.TokenManager) *DriverService {
	return &DriverService{
		drivers: drivers,
		trips:   trips,
		ledger:  ledger,
		tokens:  tokens,
		now:     time.Now,
	}
}

// RegisterInput is one account-creation request.
type RegisterInput struct {
	Email          string
	Password       string
	EmployeeNumber string
	FirstName      string
	LastName       string
}

// Register creates a driver account and returns the driver with a fresh
// session token.
//
// Returns domain.ErrValidation for a malformed email or short password and
// domain.ErrConflict if the email or employee number is already taken.
func (s *DriverService) Register(ctx context.Context, in RegisterInput) (domain.Driver, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domain.Driver{}, "", fmt.Errorf("service.DriverService.Register: %w: invalid email", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return domain.Driver{}, "", fmt.Errorf("service.DriverService.Register: %w: password must be at least %d characters",
			domain.ErrValidation, minPasswordLength)
	}
	if strings.TrimSpace(in.EmployeeNumber) == "" {
		return domain.Driver{}, "", fmt.Errorf("service.DriverService.Register: %w: employee_number is required", domain.ErrValidation)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.Driver{}, "", fmt.Errorf("service.DriverService.Register: %w", err)
	}

	driver, err := s.drivers.Create(ctx, domain.Driver{
		Email:          in.Email,
		EmployeeNumber: strings.TrimSpace(in.EmployeeNumber),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		PasswordHash:   hash,
	})
	if err != nil {
		return domain.Driver{}, "", fmt.Errorf("service.DriverService.Register: %w", err)
	}

	token, err := s.tokens.Issue(driver.ID)
	if err != nil {
		return domain.Driver{}, "", fmt.Errorf("service.DriverService.Register: %w", err)
	}
	return driver, token, nil
}

// Login authenticates by email and password and returns the driver with a
// fresh session token. An unknown email and a wrong password both map to
// domain.ErrUnauthorized so the response does not reveal which failed.
func (s *DriverService) Login(ctx context.Context, email, password string) (domain.Driver, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	driver, err := s.drivers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Driver{}, "", fmt.Errorf("service.DriverService.Login: %w: invalid credentials", domain.ErrUnauthorized)
		}
		return domain.Driver{}, "", fmt.Errorf("service.DriverService.Login: %w", err)
	}
	if !auth.CheckPassword(password, driver.PasswordHash) {
		return domain.Driver{}, "", fmt.Errorf("service.DriverService.Login: %w: invalid credentials", domain.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(driver.ID)
	if err != nil {
		return domain.Driver{}, "", fmt.Errorf("service.DriverService.Login: %w", err)
	}
	return driver, token, nil
}

// Me returns the driver's own profile.
func (s *DriverService) Me(ctx context.Context, driverID uuid.UUID) (domain.Driver, error) {
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.DriverService.Me: %w", err)
	}
	return driver, nil
}

// HOSStatus is the live duty snapshot the dashboard polls.
type HOSStatus struct {
	DutyStatus domain.DutyStatus `json:"current_duty_status"`
	Assessment hos.Assessment    `json:"hos"`
}

// HOSStatus returns the driver's current duty status and HOS assessment.
func (s *DriverService) HOSStatus(ctx context.Context, driverID uuid.UUID) (HOSStatus, error) {
	now := s.now().UTC()

	status, err := s.ledger.CurrentStatus(ctx, driverID)
	if err != nil {
		return HOSStatus{}, fmt.Errorf("service.DriverService.HOSStatus: %w", err)
	}
	assessment, err := s.ledger.Assess(ctx, driverID, now)
	if err != nil {
		return HOSStatus{}, fmt.Errorf("service.DriverService.HOSStatus: %w", err)
	}
	return HOSStatus{DutyStatus: status, Assessment: assessment}, nil
}

// Stats returns the driver's trip aggregates.
func (s *DriverService) Stats(ctx context.Context, driverID uuid.UUID) (repo.TripStats, error) {
	stats, err := s.trips.StatsByDriver(ctx, driverID)
	if err != nil {
		return repo.TripStats{}, fmt.Errorf("service.DriverService.Stats: %w", err)
	}
	return stats, nil
}
