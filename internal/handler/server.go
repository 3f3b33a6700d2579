// Package handler implements the HTTP handlers for the HOS engine API.
// Handlers are methods on Server, split into domain-specific files
// (driver.go, trip.go, logs.go, health.go) that all share the same struct.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/middleware"
	"github.com/freighthos/eld-engine/internal/repo"
	"github.com/freighthos/eld-engine/internal/service"
)

// DriverServicer defines the account and dashboard operations the driver
// handler depends on. Defining the interface here (in the consumer package)
// follows the Go convention: "accept interfaces, return concrete types". It
// lets handler tests inject a mock without touching the database.
type DriverServicer interface {
	Register(ctx context.Context, in service.RegisterInput) (domain.Driver, string, error)
	Login(ctx context.Context, email, password string) (domain.Driver, string, error)
	Me(ctx context.Context, driverID uuid.UUID) (domain.Driver, error)
	HOSStatus(ctx context.Context, driverID uuid.UUID) (service.HOSStatus, error)
	Stats(ctx context.Context, driverID uuid.UUID) (repo.TripStats, error)
}

// TripServicer defines the trip operations the trip handler depends on.
type TripServicer interface {
	Plan(ctx context.Context, driverID uuid.UUID, in service.PlanTripInput) (domain.Trip, error)
	GetByID(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	ListRecent(ctx context.Context, driverID uuid.UUID, window time.Duration, limit int) ([]domain.Trip, error)
	Start(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error)
	Complete(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error)
	Cancel(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error)
	Delete(ctx context.Context, driverID, tripID uuid.UUID) error
	Stops(ctx context.Context, driverID, tripID uuid.UUID) ([]domain.Stop, error)
}

// LogServicer defines the daily-log operations the log handler depends on.
type LogServicer interface {
	Daily(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error)
	Today(ctx context.Context, driverID uuid.UUID) (domain.DailyLog, error)
	Week(ctx context.Context, driverID uuid.UUID) ([]domain.DailyLog, error)
	Range(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLog, error)
	Summary(ctx context.Context, driverID uuid.UUID) (service.HOSSummary, error)
	Certify(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error)
}

// LedgerServicer defines the duty-ledger operations the handlers depend on.
type LedgerServicer interface {
	RecordEvent(ctx context.Context, e domain.DutyEvent) (domain.DutyEvent, error)
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	drivers DriverServicer
	trips   TripServicer
	logs    LogServicer
	ledger  LedgerServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(drivers DriverServicer, trips TripServicer, logs LogServicer, ledger LedgerServicer) *Server {
	return &Server{drivers: drivers, trips: trips, logs: logs, ledger: ledger}
}

// Routes builds the /api/v1 router. Registration and login are public;
// everything else sits behind the token middleware.
func (s *Server) Routes(verifier middleware.TokenVerifier) chi.Router {
	r := chi.NewRouter()

	r.Post("/drivers/register", s.handleRegister)
	r.Post("/drivers/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthHandler(verifier))

		r.Post("/drivers/logout", s.handleLogout)
		r.Get("/drivers/me", s.handleMe)
		r.Get("/drivers/hos_status", s.handleHOSStatus)
		r.Get("/drivers/stats", s.handleStats)
		r.Get("/drivers/recent_trips", s.handleRecentTrips)
		r.Post("/drivers/update_duty_status", s.handleDutyChange)

		r.Post("/trips/plan", s.handlePlanTrip)
		r.Get("/trips", s.handleListTrips)
		r.Get("/trips/{tripID}", s.handleGetTrip)
		r.Patch("/trips/{tripID}", s.handlePatchTrip)
		r.Delete("/trips/{tripID}", s.handleDeleteTrip)
		r.Post("/trips/{tripID}/start", s.handleStartTrip)
		r.Post("/trips/{tripID}/complete", s.handleCompleteTrip)
		r.Post("/trips/{tripID}/cancel", s.handleCancelTrip)
		r.Get("/trips/{tripID}/stops", s.handleTripStops)

		r.Get("/logs/today", s.handleLogToday)
		r.Get("/logs/week", s.handleLogWeek)
		r.Get("/logs/hos_summary", s.handleHOSSummary)
		r.Get("/logs/export", s.handleLogExport)
		r.Post("/logs/duty_change", s.handleDutyChange)
		r.Get("/logs/{date}", s.handleLogByDate)
		r.Post("/logs/{date}/certify", s.handleCertifyLog)
	})

	return r
}

// driverID pulls the authenticated driver out of the request context. The
// auth middleware guarantees it is present on protected routes.
func driverID(r *http.Request) uuid.UUID {
	id, _ := middleware.DriverID(r.Context())
	return id
}
