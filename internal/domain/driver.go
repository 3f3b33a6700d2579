package domain

import (
	"time"

	"github.com/google/uuid"
)

// Driver is a registered ELD user. Drivers log in by email.
// PasswordHash never leaves the repo/service layers (json:"-").
//
// The driver's current duty status is intentionally not stored here: it is
// derived from the latest entry in the duty ledger on every read, so it can
// never drift from the events.
type Driver struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	EmployeeNumber string    `json:"employee_number"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
