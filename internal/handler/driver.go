package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/service"
)

// recentTripsWindow bounds the drivers/recent_trips dashboard query.
const recentTripsWindow = 30 * 24 * time.Hour

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	EmployeeNumber string `json:"employee_number"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is the payload for register and login: the driver profile
// plus a bearer token.
type sessionResponse struct {
	Driver domain.Driver `json:"driver"`
	Token  string        `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	driver, token, err := s.drivers.Register(r.Context(), service.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		EmployeeNumber: req.EmployeeNumber,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sessionResponse{Driver: driver, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	driver, token, err := s.drivers.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Driver: driver, Token: token})
}

// handleLogout exists for client symmetry. Tokens are stateless, so there is
// nothing to revoke server-side; clients drop the token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	driver, err := s.drivers.Me(r.Context(), driverID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, driver)
}

func (s *Server) handleHOSStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.drivers.HOSStatus(r.Context(), driverID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.drivers.Stats(r.Context(), driverID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRecentTrips(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			respondError(w, r, domain.ErrValidation)
			return
		}
		limit = n
	}

	trips, err := s.trips.ListRecent(r.Context(), driverID(r), recentTripsWindow, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, trips)
}

type dutyChangeRequest struct {
	DutyStatus string           `json:"duty_status"`
	Timestamp  *time.Time       `json:"timestamp,omitempty"`
	Location   *domain.Location `json:"location,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

// handleDutyChange appends a duty-status change to the driver's ledger.
// Served both as POST /drivers/update_duty_status and POST /logs/duty_change.
func (s *Server) handleDutyChange(w http.ResponseWriter, r *http.Request) {
	var req dutyChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	event := domain.DutyEvent{
		DriverID: driverID(r),
		Status:   domain.DutyStatus(req.DutyStatus),
		Notes:    req.Notes,
	}
	if req.Timestamp != nil {
		event.Timestamp = *req.Timestamp
	}
	if req.Location != nil {
		event.Location = *req.Location
	}

	created, err := s.ledger.RecordEvent(r.Context(), event)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}
