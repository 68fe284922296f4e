package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/userdir/internal/common"
)

var (
	errBadRequest = errors.New("malformed request body")
	errBadID      = errors.New("invalid account id")
	errNoUsername = errors.New("username is required")
)

// statusFor is the one place where error kinds become status codes.
// Anything not listed is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrDuplicateUsername):
		return http.StatusConflict
	case errors.Is(err, common.ErrUsernameTaken):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnknownUsername),
		errors.Is(err, common.ErrWrongCredentials):
		return http.StatusConflict
	case errors.Is(err, common.ErrInvalidDate),
		errors.Is(err, errBadRequest),
		errors.Is(err, errBadID),
		errors.Is(err, errNoUsername):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
	}

	writeJSON(w, status, errorResponse{Error: msg})
}
