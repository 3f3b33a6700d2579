package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

// driverIDKey carries the authenticated driver's ID through the request context.
const driverIDKey contextKey = "driver_id"

// TokenVerifier validates a session token and returns the driver it belongs to.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// NewAuthHandler returns a middleware that authenticates requests via the
// Authorization header and stores the driver ID in the request context.
// Both "Bearer <token>" and "Token <token>" schemes are accepted; clients
// ported from DRF-style APIs send the latter.
func NewAuthHandler(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r.Header.Get("Authorization"))
			if raw == "" {
				unauthorized(w)
				return
			}
			driverID, err := verifier.Verify(raw)
			if err != nil {
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), driverIDKey, driverID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DriverID extracts the authenticated driver's ID from the request context.
// ok is false when the request never passed through NewAuthHandler.
func DriverID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(driverIDKey).(uuid.UUID)
	return id, ok
}

// bearerToken strips the auth scheme from an Authorization header value.
func bearerToken(header string) string {
	for _, scheme := range []string{"Bearer ", "Token "} {
		if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			return strings.TrimSpace(header[len(scheme):])
		}
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"unauthorized","message":"missing or invalid credentials"}}`))
}
