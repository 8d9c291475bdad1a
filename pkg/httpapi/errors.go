package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/jwt"
	"github.com/dmitrymomot/authcore/pkg/logger"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusOf maps an auth error to its HTTP status.
func StatusOf(err error) int {
	switch auth.KindOf(err) {
	case auth.KindConflict:
		return http.StatusConflict
	case auth.KindUnauthorized, auth.KindInvalidToken:
		return http.StatusUnauthorized
	case auth.KindNotFound:
		return http.StatusNotFound
	case auth.KindExpired:
		return http.StatusGone
	case auth.KindUnsupportedProvider:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the response for a command error. Server-side failures are
// logged and answered with a generic message.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", logger.Error(err))
		writeError(w, status, string(auth.KindInternal), http.StatusText(status))
		return
	}
	writeError(w, status, string(auth.KindOf(err)), err.Error())
}

func (h *handler) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := "invalid_token", jwt.ErrInvalidToken.Error()
	switch {
	case errors.Is(err, jwt.ErrMissingToken):
		code, msg = "unauthorized", jwt.ErrMissingToken.Error()
	case errors.Is(err, jwt.ErrExpiredToken):
		msg = jwt.ErrExpiredToken.Error()
	}
	h.log.DebugContext(r.Context(), "bearer token rejected", logger.Error(err))
	writeError(w, http.StatusUnauthorized, code, msg)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
