package middleware

import (
	"encoding/json"
	"habit_tracker/internal/common"
	"habit_tracker/internal/common/security"
	"habit_tracker/internal/platform/metrics"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type guardFixture struct {
	tokens  *security.TokenService
	metrics *metrics.Metrics
	handler http.Handler
	called  bool
	claims  *security.Claims
}

func newGuardFixture(t *testing.T, ttl time.Duration) *guardFixture {
	t.Helper()
	tokens, err := security.NewTokenService([]byte(testSecret), ttl)
	require.NoError(t, err)

	f := &guardFixture{tokens: tokens, metrics: metrics.New()}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := Authenticator(tokens, log, f.metrics, common.NewErrorResponder(log, true))
	f.handler = guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.called = true
		f.claims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	return f
}

func (f *guardFixture) do(authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticator_ValidToken(t *testing.T) {
	f := newGuardFixture(t, time.Hour)
	token, err := f.tokens.Issue(security.Claims{ID: "u-1", Email: "a@x.io", Username: "alice"})
	require.NoError(t, err)

	rec := f.do("Bearer " + token)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, f.called)
	require.NotNil(t, f.claims)
	assert.Equal(t, "u-1", f.claims.ID)
	assert.Equal(t, "alice", f.claims.Username)
}

func TestAuthenticator_MissingToken(t *testing.T) {
	f := newGuardFixture(t, time.Hour)

	rec := f.do("")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, f.called)
	assert.Equal(t, map[string]any{"error": "Authentication required"}, errorBody(t, rec))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthRejections.WithLabelValues(metrics.ReasonMissing)))
}

func TestAuthenticator_RejectsBadTokens(t *testing.T) {
	f := newGuardFixture(t, time.Hour)
	other, err := security.NewTokenService([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue(security.Claims{ID: "u-1", Email: "a@x.io", Username: "alice"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"garbage", "Bearer not.a.token"},
		{"wrong secret", "Bearer " + foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.called = false
			rec := f.do(tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, f.called)
			assert.Equal(t, map[string]any{"error": "Invalid or expired token"}, errorBody(t, rec))
		})
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.AuthRejections.WithLabelValues(metrics.ReasonInvalid)))
}

func TestAuthenticator_ExpiredToken(t *testing.T) {
	f := newGuardFixture(t, time.Second)
	past := time.Now().Add(-time.Hour)
	_, token, err := jwtauth.New("HS256", []byte(testSecret), nil).Encode(map[string]any{
		"sub":      "u-1",
		"id":       "u-1",
		"email":    "a@x.io",
		"username": "alice",
		"iat":      past.Unix(),
		"exp":      past.Add(time.Minute).Unix(),
	})
	require.NoError(t, err)

	rec := f.do("Bearer " + token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, f.called)
	assert.Equal(t, map[string]any{"error": "Invalid or expired token"}, errorBody(t, rec))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthRejections.WithLabelValues(metrics.ReasonExpired)))
}
