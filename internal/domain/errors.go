package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, malformed coordinates).
// Handlers map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrUnauthorized is returned when credentials are missing, malformed, or
// do not match a driver. Handlers map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrOutOfOrderTimestamp is returned by the ledger when a duty event's
// timestamp is not strictly after the driver's latest recorded event.
// The ledger is never mutated when this is returned. HTTP 409.
var ErrOutOfOrderTimestamp = errors.New("out of order timestamp")

// ErrAlreadyCertified is returned when certifying a daily log that has
// already been certified. Certification is one-way. HTTP 409.
var ErrAlreadyCertified = errors.New("log already certified")

// ErrLogCertified is returned when recording a duty event whose date falls
// on a certified daily log. Certified entries are immutable. HTTP 409.
var ErrLogCertified = errors.New("log certified")

// ErrCannotStart is returned when starting a trip while the violation
// detector reports the driver cannot legally drive. Usually wrapped in a
// CannotStartError carrying the violation strings. HTTP 409.
var ErrCannotStart = errors.New("cannot start trip")

// ErrConflict is returned when a trip state transition loses a race or is
// requested from an incompatible state (e.g. completing a planned trip).
// HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrGeocodeUnresolved is returned when the maps provider cannot resolve a
// location string to coordinates. HTTP 502.
var ErrGeocodeUnresolved = errors.New("geocode unresolved")

// ErrRouteUnavailable is returned when the maps provider cannot produce a
// path between two points, or the routing call timed out.
// HTTP 502, or 504 on timeout.
var ErrRouteUnavailable = errors.New("route unavailable")

// CannotStartError carries the active violation strings alongside the
// ErrCannotStart sentinel so handlers can attach them as error details.
type CannotStartError struct {
	Violations []string
}

func (e *CannotStartError) Error() string {
	return fmt.Sprintf("cannot start trip: %s", strings.Join(e.Violations, "; "))
}

// Unwrap lets errors.Is(err, ErrCannotStart) match.
func (e *CannotStartError) Unwrap() error { return ErrCannotStart }
