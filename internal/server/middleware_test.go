package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/carteira/internal/common"
)

func captureUser(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = common.ResolveUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerTokenMiddleware_ValidToken(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Auth.JWTSecret = testSecret

	var user string
	h := bearerTokenMiddleware(cfg)(captureUser(&user))

	rec := doRequest(h, http.MethodGet, "/api/positions", "", signToken(t, jwt.MapClaims{"sub": "alice", "email": "a@example.com"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", user)
}

func TestBearerTokenMiddleware_NoTokenPassesThrough(t *testing.T) {
	cfg := common.NewDefaultConfig()

	var user string
	h := bearerTokenMiddleware(cfg)(captureUser(&user))

	rec := doRequest(h, http.MethodGet, "/api/positions", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "default", user)
}

func TestBearerTokenMiddleware_Rejects(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Auth.JWTSecret = testSecret

	var user string
	h := bearerTokenMiddleware(cfg)(captureUser(&user))

	// wrong secret
	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).SignedString([]byte("other"))
	assert.NoError(t, err)
	rec := doRequest(h, http.MethodGet, "/", "", bad)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")

	// expired
	rec = doRequest(h, http.MethodGet, "/", "", signToken(t, jwt.MapClaims{"sub": "alice", "exp": int64(1)}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// missing subject
	rec = doRequest(h, http.MethodGet, "/", "", signToken(t, jwt.MapClaims{"email": "a@example.com"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Empty(t, user)
}

func TestCorrelationIDMiddleware(t *testing.T) {
	h := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get("X-Correlation-ID"), 8)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Correlation-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(newTestApp(nil, nil))

	rec := doRequest(h, http.MethodOptions, "/api/purchases", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequireAuth(t *testing.T) {
	a := newTestApp(nil, nil)
	a.Config.Auth.RequireAuth = true
	h := newTestHandler(a)

	rec := doRequest(h, http.MethodGet, "/api/positions", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(h, http.MethodGet, "/api/positions", "", signToken(t, jwt.MapClaims{"sub": "alice"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health stays public")
}
