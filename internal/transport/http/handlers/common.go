package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	feedsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/feed"
	ratesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/rate"
	httperrors "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/transport/http/errors"
)

// transientRetryAfterSec is the hint sent with 503 responses.
const transientRetryAfterSec = 1

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses. fallback is
// the message used for unclassified failures.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	if tf, ok := ratesvc.IsTooFast(err); ok {
		w.Header().Set("Retry-After", strconv.FormatInt(tf.RetryAfter(), 10))
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "TOO_FAST",
			Message:       "too many requests, slow down",
			RetryAfterSec: tf.RetryAfter(),
		})
		return
	}

	switch {
	case errors.Is(err, errs.ErrUnauthenticated):
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
	case errors.Is(err, feedsvc.ErrInvalidCursor):
		writeBadRequest(w, "INVALID_CURSOR", "invalid cursor")
	case errors.Is(err, errs.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", validationMessage(err))
	case errors.Is(err, feedsvc.ErrSessionExpired):
		httperrors.Write(w, http.StatusGone, httperrors.APIError{
			Code:    "FEED_SESSION_EXPIRED",
			Message: "feed session expired, restart the feed",
		})
	case errors.Is(err, errs.ErrInvalidTarget):
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: "INVALID_TARGET", Message: "target not found or not available"})
	case errors.Is(err, errs.ErrNotParticipant):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: "NOT_PARTICIPANT", Message: "not a conversation participant"})
	case errors.Is(err, errs.ErrTransientStore):
		w.Header().Set("Retry-After", strconv.Itoa(transientRetryAfterSec))
		httperrors.Write(w, http.StatusServiceUnavailable, httperrors.RateLimitError{
			Code:          "TEMPORARILY_UNAVAILABLE",
			Message:       "temporarily unavailable, retry",
			RetryAfterSec: transientRetryAfterSec,
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", fallback)
	}
}

func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, errs.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(errs.ErrValidation.Error())+2:]
	}
	return "invalid request"
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}
