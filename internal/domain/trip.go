package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TripStatus is the lifecycle state of a trip.
// planned → active → completed; cancelled is reachable from any non-terminal
// state. completed and cancelled are terminal.
type TripStatus string

const (
	TripPlanned   TripStatus = "planned"
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// ParseTripStatus validates a wire-format trip status string.
func ParseTripStatus(s string) (TripStatus, error) {
	switch TripStatus(s) {
	case TripPlanned, TripActive, TripCompleted, TripCancelled:
		return TripStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown trip status %q", ErrValidation, s)
}

// Terminal reports whether no further transitions are allowed from s.
func (s TripStatus) Terminal() bool {
	return s == TripCompleted || s == TripCancelled
}

// Trip is the top-level aggregate produced by the trip plan assembler.
// A trip exclusively owns its stops (cascade lifecycle). Distance is in
// miles; CurrentCycleHours is the driver's cycle usage at planning time and
// is planning input, not derived state.
type Trip struct {
	ID                uuid.UUID     `json:"id"`
	DriverID          uuid.UUID     `json:"driver_id"`
	CurrentLocation   Location      `json:"current_location"`
	PickupLocation    Location      `json:"pickup_location"`
	DropoffLocation   Location      `json:"dropoff_location"`
	CurrentCycleHours float64       `json:"current_cycle_hours"`
	TotalDistance     float64       `json:"total_distance"`
	EstimatedDuration time.Duration `json:"-"`
	Status            TripStatus    `json:"status"`
	PlannedStartTime  time.Time     `json:"planned_start_time"`
	ActualStartTime   *time.Time    `json:"actual_start_time,omitempty"`
	EstimatedEndTime  *time.Time    `json:"estimated_end_time,omitempty"`
	ActualEndTime     *time.Time    `json:"actual_end_time,omitempty"`
	IsHOSCompliant    bool          `json:"is_hos_compliant"`
	HOSViolations     []string      `json:"hos_violations"`
	Stops             []Stop        `json:"stops,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
