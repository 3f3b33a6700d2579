package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/service"
)

type planTripRequest struct {
	CurrentLocation   domain.Location `json:"current_location"`
	PickupLocation    domain.Location `json:"pickup_location"`
	DropoffLocation   domain.Location `json:"dropoff_location"`
	CurrentCycleHours *float64        `json:"current_cycle_hours,omitempty"`
	PlannedStartTime  *time.Time      `json:"planned_start_time,omitempty"`
}

func (s *Server) handlePlanTrip(w http.ResponseWriter, r *http.Request) {
	var req planTripRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	trip, err := s.trips.Plan(r.Context(), driverID(r), service.PlanTripInput{
		CurrentLocation:   req.CurrentLocation,
		PickupLocation:    req.PickupLocation,
		DropoffLocation:   req.DropoffLocation,
		CurrentCycleHours: req.CurrentCycleHours,
		PlannedStartTime:  req.PlannedStartTime,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, trip)
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		respondError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, r, err)
		return
	}
	p := domain.NewPaginationParams(page, limit)

	trips, total, err := s.trips.List(r.Context(), driverID(r), p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Items: trips, Total: total, Page: p.Page, Limit: p.Limit})
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	trip, err := s.trips.GetByID(r.Context(), driverID(r), tripID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, trip)
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.trips.Delete(r.Context(), driverID(r), tripID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartTrip(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.trips.Start)
}

func (s *Server) handleCompleteTrip(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.trips.Complete)
}

func (s *Server) handleCancelTrip(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.trips.Cancel)
}

// patchTripRequest is the wire-compatibility shape for clients that update
// trips with a PATCH of the target status instead of calling the transition
// endpoints. Only the status field drives behavior: actual start and end
// times are stamped by the transitions themselves, so a client-supplied
// actual_end_time is accepted and ignored.
type patchTripRequest struct {
	Status        string     `json:"status"`
	ActualEndTime *time.Time `json:"actual_end_time,omitempty"`
}

func (s *Server) handlePatchTrip(w http.ResponseWriter, r *http.Request) {
	var req patchTripRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	var fn func(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error)
	switch domain.TripStatus(req.Status) {
	case domain.TripActive:
		fn = s.trips.Start
	case domain.TripCompleted:
		fn = s.trips.Complete
	case domain.TripCancelled:
		fn = s.trips.Cancel
	default:
		respondError(w, r, fmt.Errorf("%w: status must be one of active, completed, cancelled", domain.ErrValidation))
		return
	}
	s.handleTransition(w, r, fn)
}

func (s *Server) handleTripStops(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	stops, err := s.trips.Stops(r.Context(), driverID(r), tripID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stops)
}

// handleTransition runs one trip lifecycle transition. Start, complete, and
// cancel all share the same request/response shape.
func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error),
) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	trip, err := fn(r.Context(), driverID(r), tripID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, trip)
}

// pathUUID parses a UUID path parameter.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid UUID", domain.ErrValidation, name)
	}
	return id, nil
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, name)
	}
	return &n, nil
}
