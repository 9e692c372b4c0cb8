package server

import (
	"errors"
	"net/http"

	"drainer-registry/registry"
)

// statusOf maps a registry error to the HTTP status returned to the caller.
func statusOf(err error) int {
	switch {
	case registry.IsRejection(err):
		return http.StatusBadRequest
	case registry.IsLimit(err):
		return http.StatusConflict
	case errors.Is(err, registry.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, registry.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// resultOf is the metrics label for the outcome of a registry operation.
func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case registry.IsRejection(err):
		return "rejected"
	case registry.IsLimit(err):
		return "limit"
	case errors.Is(err, registry.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, registry.ErrRecordNotFound):
		return "not_found"
	case errors.Is(err, registry.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
