package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/scoresnap/internal/dependencies/mocks"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/services/auth"
	"github.com/mcoot/scoresnap/internal/testutil"
)

type stubValidator map[string]string

func (v stubValidator) ValidateToken(token string) (*auth.Claims, error) {
	userID, ok := v[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}}, nil
}

func TestRateLimiterAllowsBurstThenRefills(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(60, 3, clk)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("1.2.3.4"), "request %d", i+1)
	}
	assert.False(t, limiter.Allow("1.2.3.4"))
	assert.True(t, limiter.Allow("5.6.7.8"), "other clients have their own bucket")

	clk.Advance(time.Second)
	assert.True(t, limiter.Allow("1.2.3.4"))
	assert.False(t, limiter.Allow("1.2.3.4"))
}

func TestRateLimiterDisabled(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(0, 1, clk)
	for i := 0; i < 100; i++ {
		require.True(t, limiter.Allow("1.2.3.4"))
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(1, 1, clk)
	limiter.Allow("1.2.3.4")

	clk.Advance(idleLimiterTTL + time.Second)
	limiter.Allow("5.6.7.8")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.visitors, 1)
	assert.Contains(t, limiter.visitors, "5.6.7.8")
}

func TestRateLimiterMiddleware(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	handler := NewRateLimiter(30, 1, clk).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/uploads", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusNoContent, serve().Code)
	rr := serve()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestAuthMiddleware(t *testing.T) {
	validator := stubValidator{"good": "user-1"}
	var seen model.UserID
	var seenToken string
	handler := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = MustGetUserID(r.Context())
		seenToken = GetToken(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"lowercase scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer good") }, http.StatusOK},
		{"bad bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized},
		{"basic auth ignored", func(r *http.Request) { r.Header.Set("Authorization", "Basic good") }, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"}) }, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen, seenToken = "", ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, model.UserID("user-1"), seen)
				assert.Equal(t, "good", seenToken)
			}
		})
	}
}

func TestRecoveryWritesJSONError(t *testing.T) {
	handler := Recovery(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "INTERNAL_ERROR")
}
