package handler

import (
	"net/http"
	"time"

	"github.com/mcoot/scoresnap/internal/api/apierr"
	"github.com/mcoot/scoresnap/internal/api/middleware"
	"github.com/mcoot/scoresnap/internal/api/request"
	"github.com/mcoot/scoresnap/internal/api/response"
	"github.com/mcoot/scoresnap/internal/services/auth"
)

// AuthHandler handles account endpoints
type AuthHandler struct {
	authService  *auth.Service
	secureCookie bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := request.Decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	session, err := h.authService.Register(r.Context(), req.Username, req.Password, req.DisplayName)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	h.setCookie(w, session.Token, session.ExpiresAt)
	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session))
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := request.Decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	h.setCookie(w, session.Token, session.ExpiresAt)
	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// Logout handles POST /api/v1/auth/logout by clearing the session cookie.
// Tokens are stateless and stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	response.NoContent(w)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), middleware.GetToken(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
