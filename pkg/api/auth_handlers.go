package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/auth"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/httputil"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/middleware"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/validation"
)

// AuthHandlers handles account and token endpoints
type AuthHandlers struct {
	service *auth.Service
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(service *auth.Service) *AuthHandlers {
	return &AuthHandlers{service: service}
}

// RegisterRoutes registers auth routes. authenticated wraps the routes that
// act on the caller's account; register, login and refresh never read the
// Authorization header.
func (h *AuthHandlers) RegisterRoutes(router *mux.Router, authenticated func(http.HandlerFunc) http.Handler) {
	router.HandleFunc("/api/auth/register/", h.register).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login/", h.login).Methods(http.MethodPost)
	router.Handle("/api/auth/logout/", authenticated(h.logout)).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/token/refresh/", h.refresh).Methods(http.MethodPost)
	router.Handle("/api/auth/me/", authenticated(h.me)).Methods(http.MethodGet)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// register handles POST /api/auth/register/
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	session, err := h.service.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httputil.WriteCreated(w, session)
}

// login handles POST /api/auth/login/
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	switch {
	case err == nil:
		_ = httputil.WriteSuccess(w, session)
	case errors.Is(err, auth.ErrMissingCredentials):
		httputil.WriteBadRequest(w, `Must include "username" and "password".`)
	case errors.Is(err, auth.ErrInvalidCredentials):
		httputil.WriteBadRequest(w, "Unable to log in with provided credentials.")
	case errors.Is(err, auth.ErrUserInactive):
		httputil.WriteBadRequest(w, "User account is disabled.")
	default:
		writeError(w, r, err)
	}
}

// logout handles POST /api/auth/logout/
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	refresh := strings.TrimSpace(req.Refresh)
	if refresh == "" {
		httputil.WriteBadRequest(w, "Refresh token is required.")
		return
	}

	err := h.service.Logout(r.Context(), middleware.GetAuthContext(r), refresh)
	switch {
	case err == nil:
		_ = httputil.WriteDetail(w, http.StatusOK, "Successfully logged out.")
	case errors.Is(err, auth.ErrInvalidToken):
		httputil.WriteBadRequest(w, "Invalid token.")
	default:
		writeError(w, r, err)
	}
}

// refresh handles POST /api/auth/token/refresh/
func (h *AuthHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	refresh := strings.TrimSpace(req.Refresh)
	if refresh == "" {
		writeError(w, r, validation.NewFieldError("refresh", validation.MsgRequired))
		return
	}

	access, err := h.service.Refresh(r.Context(), refresh)
	switch {
	case err == nil:
		_ = httputil.WriteSuccess(w, map[string]string{"access": access})
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenRevoked), errors.Is(err, auth.ErrUserInactive):
		httputil.WriteUnauthorized(w, "Token is invalid or expired")
	default:
		writeError(w, r, err)
	}
}

// me handles GET /api/auth/me/
func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r)
	_ = httputil.WriteSuccess(w, authCtx.User)
}
