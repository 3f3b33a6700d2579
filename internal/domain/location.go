// Package domain contains the core data types for the ELD trip engine.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (hos, planner, routing, repo, service, handler).
package domain

import "fmt"

// Location is a geographic point with a human-readable address.
// It is stored as JSON on trips, stops, and duty events, matching the shape
// the ELD client sends: {"lat": float, "lng": float, "address": str}.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
	Name    string  `json:"name,omitempty"`
}

// Validate checks that the coordinates are on the globe.
func (l Location) Validate() error {
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrValidation)
	}
	if l.Lng < -180 || l.Lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrValidation)
	}
	return nil
}

// IsZero reports whether the location carries no coordinates or address.
func (l Location) IsZero() bool {
	return l.Lat == 0 && l.Lng == 0 && l.Address == "" && l.Name == ""
}
