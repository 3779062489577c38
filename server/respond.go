package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/billbatista/eventfund/ledger"
	"github.com/billbatista/eventfund/profile"
	"github.com/billbatista/eventfund/session"
	"github.com/billbatista/eventfund/user"
)

var (
	ErrMalformedBody = errors.New("malformed request body")
	ErrInvalidID     = errors.New("event id must be an integer")
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps an operation error to its status code. Unknown errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrEventExists),
		errors.Is(err, user.ErrUsernameExists),
		errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, user.ErrValidation),
		errors.Is(err, profile.ErrEmptyUsername),
		errors.Is(err, ErrMalformedBody),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, session.ErrInvalidSession),
		errors.Is(err, session.ErrExpiredSession):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}
