package http

import (
	"errors"
	"net/http"

	"github.com/vogiaan1904/dealview-tracker/internal/service"
	pkgErrors "github.com/vogiaan1904/dealview-tracker/pkg/errors"
)

var (
	errDealIDRequired         = pkgErrors.NewHTTPError(40001, "Deal id is required", http.StatusBadRequest)
	errInvalidRatio           = pkgErrors.NewHTTPError(40002, "Visibility ratio must be within [0, 1]", http.StatusBadRequest)
	errInvalidCredentials     = pkgErrors.NewHTTPError(40101, "Invalid username or password", http.StatusUnauthorized)
	errTokenInvalid           = pkgErrors.NewHTTPError(40102, "Invalid or expired token", http.StatusUnauthorized)
	errMissingToken           = pkgErrors.NewHTTPError(40103, "Missing bearer token", http.StatusUnauthorized)
	errInstanceNotFound       = pkgErrors.NewHTTPError(40401, "Impression not found", http.StatusNotFound)
	errInstanceAlreadyMounted = pkgErrors.NewHTTPError(40901, "Impression already mounted", http.StatusConflict)
	errTrackingUnavailable    = pkgErrors.NewHTTPError(50301, "View tracking is unavailable", http.StatusServiceUnavailable)
)

// mapHTTPError reports false for errors that have no client-facing form.
func (h *Handler) mapHTTPError(err error) (error, bool) {
	switch {
	case errors.Is(err, service.ErrDealIDRequired):
		return errDealIDRequired, true
	case errors.Is(err, service.ErrInvalidRatio):
		return errInvalidRatio, true
	case errors.Is(err, service.ErrInvalidCredentials):
		return errInvalidCredentials, true
	case errors.Is(err, service.ErrTokenInvalid):
		return errTokenInvalid, true
	case errors.Is(err, service.ErrInstanceNotFound):
		return errInstanceNotFound, true
	case errors.Is(err, service.ErrInstanceAlreadyMounted):
		return errInstanceAlreadyMounted, true
	case errors.Is(err, service.ErrTrackingUnavailable):
		return errTrackingUnavailable, true
	default:
		return err, false
	}
}
