package httpadapter

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrItineraryNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps typed domain errors to status codes and attaches the
// Retry-After hint when the caller was rate limited.
func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)

	var rle *domain.RateLimitError
	if status == http.StatusTooManyRequests && errors.As(err, &rle) && rle.RetryAfter > 0 {
		seconds := int(rle.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
