package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/freighthos/eld-engine/internal/domain"
)

// errorResponse is the uniform error envelope for every non-2xx response.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// respondError maps a service error onto the HTTP status and error code the
// API contract defines. Unrecognized errors become opaque 500s; their detail
// goes to the log, not the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var cannotStart *domain.CannotStartError
	switch {
	case errors.As(err, &cannotStart):
		respondJSON(w, http.StatusConflict, errorResponse{Error: errorDetail{
			Code:    "cannot_start_trip",
			Message: "active HOS violations prevent starting this trip",
			Details: map[string]any{"violations": cannotStart.Violations},
		}})
	case errors.Is(err, domain.ErrValidation):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: errorDetail{
			Code: "validation_error", Message: unwrapMessage(err),
		}})
	case errors.Is(err, domain.ErrUnauthorized):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: errorDetail{
			Code: "unauthorized", Message: unwrapMessage(err),
		}})
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: errorDetail{
			Code: "not_found", Message: "resource not found",
		}})
	case errors.Is(err, domain.ErrOutOfOrderTimestamp):
		respondJSON(w, http.StatusConflict, errorResponse{Error: errorDetail{
			Code: "out_of_order_timestamp", Message: unwrapMessage(err),
		}})
	case errors.Is(err, domain.ErrAlreadyCertified):
		respondJSON(w, http.StatusConflict, errorResponse{Error: errorDetail{
			Code: "already_certified", Message: "this daily log has already been certified",
		}})
	case errors.Is(err, domain.ErrLogCertified):
		respondJSON(w, http.StatusConflict, errorResponse{Error: errorDetail{
			Code: "log_certified", Message: unwrapMessage(err),
		}})
	case errors.Is(err, domain.ErrConflict):
		respondJSON(w, http.StatusConflict, errorResponse{Error: errorDetail{
			Code: "conflict", Message: unwrapMessage(err),
		}})
	case errors.Is(err, domain.ErrGeocodeUnresolved):
		if errors.Is(err, context.DeadlineExceeded) {
			respondJSON(w, http.StatusGatewayTimeout, errorResponse{Error: errorDetail{
				Code: "routing_timeout", Message: "routing provider unavailable",
			}})
			return
		}
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: errorDetail{
			Code: "geocode_unresolved", Message: unwrapMessage(err),
		}})
	case errors.Is(err, domain.ErrRouteUnavailable):
		status := http.StatusBadGateway
		code := "route_unavailable"
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
			code = "routing_timeout"
		}
		respondJSON(w, status, errorResponse{Error: errorDetail{
			Code: code, Message: "routing provider unavailable",
		}})
	default:
		slog.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "err", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: errorDetail{
			Code: "internal_error", Message: "internal server error",
		}})
	}
}

// unwrapMessage extracts the human-readable tail from a wrapped error chain,
// e.g. "service.TripService.Plan: validation error: bad latitude" becomes
// "validation error: bad latitude". Call-site prefixes follow the
// "pkg.Type.Method: " convention, so everything up to the last such prefix
// is internal detail the client does not need.
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for {
		i := strings.Index(msg, ": ")
		if i < 0 {
			break
		}
		prefix := msg[:i]
		if !strings.Contains(prefix, ".") || strings.ContainsAny(prefix, " \t") {
			break
		}
		msg = msg[i+2:]
	}
	return msg
}
