package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boardledger/boardledger/internal/apperr"
	"github.com/boardledger/boardledger/pkg/user"
	log "github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// ErrorStatus maps an error kind to the HTTP status returned to callers.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, apperr.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, apperr.ErrInvariantViolation):
		return http.StatusConflict, "invariant_violation"
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, ""
	}
}

// WriteError writes err as a JSON ErrorResponse with the matching status.
func WriteError(w http.ResponseWriter, err error) {
	status, kind := ErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Errorf("request failed: %v", err)
	}
	WriteJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

// DecodeJSON decodes the request body into v, reporting malformed bodies as invalid input.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.InvalidInput("malformed request body: %v", err)
	}
	return nil
}
