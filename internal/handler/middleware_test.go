package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	valid, err := SignToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	expired, err := SignToken(testSecret, userID, -time.Minute)
	require.NoError(t, err)
	otherSecret, err := SignToken("another-secret", userID, time.Hour)
	require.NoError(t, err)
	notUUID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: userID.String(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name        string
		authHeader  string
		wantCode    int
		wantMessage string
	}{
		{name: "missing authorization header", authHeader: "", wantCode: http.StatusUnauthorized, wantMessage: "missing authorization header"},
		{name: "no bearer prefix", authHeader: valid, wantCode: http.StatusUnauthorized, wantMessage: "invalid authorization format"},
		{name: "wrong scheme", authHeader: "Basic " + valid, wantCode: http.StatusUnauthorized, wantMessage: "invalid authorization format"},
		{name: "garbage token", authHeader: "Bearer invalid-jwt-token", wantCode: http.StatusUnauthorized, wantMessage: "invalid or expired token"},
		{name: "expired token", authHeader: "Bearer " + expired, wantCode: http.StatusUnauthorized, wantMessage: "invalid or expired token"},
		{name: "wrong secret", authHeader: "Bearer " + otherSecret, wantCode: http.StatusUnauthorized, wantMessage: "invalid or expired token"},
		{name: "subject is not a uuid", authHeader: "Bearer " + notUUID, wantCode: http.StatusUnauthorized, wantMessage: "invalid or expired token"},
		{name: "token without expiry", authHeader: "Bearer " + noExpiry, wantCode: http.StatusUnauthorized, wantMessage: "invalid or expired token"},
		{name: "valid token", authHeader: "Bearer " + valid, wantCode: http.StatusOK},
		{name: "lowercase scheme", authHeader: "bearer " + valid, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/watchlist", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			AuthMiddleware(testSecret)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, userID, seen)
			} else {
				assert.Equal(t, uuid.Nil, seen)
				assert.Contains(t, w.Body.String(), `"success":false`)
				assert.Contains(t, w.Body.String(), `"message":"`+tt.wantMessage+`"`)
			}
		})
	}
}

func TestGetUserID_Missing(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, uuid.Nil, GetUserID(req.Context()))
}

func TestRequestLogging_PassesThrough(t *testing.T) {
	t.Parallel()

	called := false
	h := middleware.RequestID(RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.NotEmpty(t, middleware.GetReqID(r.Context()))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}
