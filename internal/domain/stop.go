package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StopType classifies a stop along a trip route.
type StopType string

const (
	StopPickup  StopType = "pickup"
	StopDropoff StopType = "dropoff"
	StopFuel    StopType = "fuel"
	StopRest    StopType = "rest"
	StopBreak   StopType = "break"
)

// ParseStopType validates a wire-format stop type string.
func ParseStopType(s string) (StopType, error) {
	switch StopType(s) {
	case StopPickup, StopDropoff, StopFuel, StopRest, StopBreak:
		return StopType(s), nil
	}
	return "", fmt.Errorf("%w: unknown stop type %q", ErrValidation, s)
}

// StopStatus tracks a stop's progress while the trip runs.
type StopStatus string

const (
	StopPlanned   StopStatus = "planned"
	StopCurrent   StopStatus = "current"
	StopCompleted StopStatus = "completed"
)

// Stop is a single scheduled halt on a trip route.
// Stops are owned exclusively by their parent trip and ordered by Sequence;
// PlannedArrival must be monotonically non-decreasing along the sequence.
type Stop struct {
	ID                   uuid.UUID  `json:"id"`
	TripID               uuid.UUID  `json:"trip_id"`
	Type                 StopType   `json:"stop_type"`
	Status               StopStatus `json:"status"`
	Location             Location   `json:"location"`
	PlannedArrival       time.Time  `json:"planned_arrival_time"`
	PlannedDeparture     time.Time  `json:"planned_departure_time"`
	DurationMinutes      int        `json:"duration_minutes"`
	DistanceFromPrevious float64    `json:"distance_from_previous"`
	IsMandatory          bool       `json:"is_mandatory"`
	Sequence             int        `json:"sequence"`
	Notes                string     `json:"notes,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
