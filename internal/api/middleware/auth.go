package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/scoresnap/internal/api/apierr"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/services/auth"
)

type contextKey string

const (
	claimsContextKey contextKey = "claims"
	tokenContextKey  contextKey = "token"
)

// SessionCookie is the cookie that carries a token for browser clients
const SessionCookie = "session"

// TokenValidator checks bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Auth rejects requests without a valid token
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads a bearer token, falling back to the session cookie
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// GetClaims returns the token claims from the request context
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

// GetToken returns the raw token from the request context
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// MustGetUserID returns the authenticated user's id or panics
func MustGetUserID(ctx context.Context) model.UserID {
	claims := GetClaims(ctx)
	if claims == nil {
		panic("no claims in context - auth middleware not applied?")
	}
	return model.UserID(claims.Subject)
}
