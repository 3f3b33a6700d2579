package domain

import "time"

// Leg is a single driving segment between two route points, produced by the
// route segmenter from maps-provider output. Legs are ordered; cumulative
// distance along the sequence is strictly increasing.
type Leg struct {
	From          Location      `json:"from"`
	To            Location      `json:"to"`
	DistanceMiles float64       `json:"distance_miles"`
	Duration      time.Duration `json:"-"`
}
