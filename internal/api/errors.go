package api

import (
	"errors"
	"net/http"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/savestore"
)

// Error types reported in ErrorBody.Type.
const (
	TypeInvalidRequest = "invalid_request_error"
	TypeNotFound       = "not_found_error"
	TypeInvalidSave    = "invalid_save_error"
	TypeTooLarge       = "too_large_error"
	TypeServer         = "server_error"
)

// statusFor maps store and engine errors to an HTTP status and error type.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, savestore.ErrInvalidName):
		return http.StatusBadRequest, TypeInvalidRequest
	case errors.Is(err, savestore.ErrNotFound):
		return http.StatusNotFound, TypeNotFound
	case errors.Is(err, savestore.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, TypeTooLarge
	case errors.Is(err, sl.ErrCorruptFormat),
		errors.Is(err, sl.ErrUnsupportedVersion),
		errors.Is(err, sl.ErrAllocationLimit):
		return http.StatusUnprocessableEntity, TypeInvalidSave
	}
	return http.StatusInternalServerError, TypeServer
}

// rejectReason labels refused uploads in metrics.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, savestore.ErrTooLarge):
		return "too_large"
	case errors.Is(err, sl.ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, sl.ErrAllocationLimit):
		return "allocation_limit"
	case errors.Is(err, sl.ErrCorruptFormat):
		return "corrupt"
	case errors.Is(err, savestore.ErrInvalidName):
		return "invalid_name"
	}
	return "other"
}
