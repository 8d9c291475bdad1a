package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/authcore/pkg/jwt"
)

type handler struct {
	svc AuthService
	log *slog.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *credentialsRequest) validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return invalidField("email")
	}
	if r.Password == "" {
		return invalidField("password")
	}
	return nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *refreshRequest) validate() error {
	if r.RefreshToken == "" {
		return invalidField("refresh_token")
	}
	return nil
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *forgotPasswordRequest) validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return invalidField("email")
	}
	return nil
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r *resetPasswordRequest) validate() error {
	if r.Token == "" {
		return invalidField("token")
	}
	if r.NewPassword == "" {
		return invalidField("new_password")
	}
	return nil
}

type providerRequest struct {
	Credential string `json:"credential"`
}

func (r *providerRequest) validate() error {
	if r.Credential == "" {
		return invalidField("credential")
	}
	return nil
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// register handles POST /api/auth/register.
func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.bind(w, r, &req) {
		return
	}
	if err := h.svc.Register(r.Context(), req.Email, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// login handles POST /api/auth/login.
func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.bind(w, r, &req) {
		return
	}
	pair, err := h.svc.LoginWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// refresh handles POST /api/auth/refresh.
func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.bind(w, r, &req) {
		return
	}
	pair, err := h.svc.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// forgotPassword handles POST /api/auth/forgot-password. It answers 202 for
// unknown emails too.
func (h *handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !h.bind(w, r, &req) {
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// resetPassword handles POST /api/auth/reset-password.
func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.bind(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// providerLogin handles POST /api/auth/providers/{provider}/login.
func (h *handler) providerLogin(w http.ResponseWriter, r *http.Request) {
	var req providerRequest
	if !h.bind(w, r, &req) {
		return
	}
	token, err := h.svc.LoginWithProvider(r.Context(), chi.URLParam(r, "provider"), req.Credential)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: token})
}

// providerLink handles POST /api/auth/providers/{provider}/link for the
// bearer of the access token.
func (h *handler) providerLink(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.GetClaims(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing access token")
		return
	}
	accountID, err := uuid.Parse(claims.AccountID())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token", "token subject is not an account id")
		return
	}

	var req providerRequest
	if !h.bind(w, r, &req) {
		return
	}
	if err := h.svc.LinkProvider(r.Context(), accountID, chi.URLParam(r, "provider"), req.Credential); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validate handles GET /api/auth/validate and echoes the verified claims.
func (h *handler) validate(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.GetClaims(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing access token")
		return
	}
	writeJSON(w, http.StatusOK, claims)
}
