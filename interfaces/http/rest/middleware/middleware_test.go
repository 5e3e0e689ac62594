package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"musicstore/pkg/auth"
	"musicstore/pkg/common"
	apperrors "musicstore/pkg/errors"
	"musicstore/pkg/observability"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	if claims, ok := common.ClaimsFrom(r.Context()); ok {
		w.Header().Set("X-Subject", claims.Subject)
	}
	w.WriteHeader(http.StatusOK)
}

func TestRequireRole(t *testing.T) {
	tokens, err := auth.NewJWTManager("test-secret", "musicstore", time.Hour)
	require.NoError(t, err)
	errs := apperrors.NewErrorHandler(zap.NewNop(), false)
	h := RequireRole(tokens, errs, zap.NewNop(), auth.RoleManager)(http.HandlerFunc(okHandler))

	admin, err := tokens.Issue("u-1", "Admin", auth.RoleManager)
	require.NoError(t, err)
	customer, err := tokens.Issue("u-2", "Customer")
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"missing token", func(*http.Request) {}, http.StatusUnauthorized},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"wrong role", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+customer) }, http.StatusForbidden},
		{"administrator", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+admin) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "auth_token", Value: admin}) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/StoreManager", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "u-1", rec.Header().Get("X-Subject"))
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := auth.NewKeyedLimiter(0.001, 2, time.Minute)
	h := RateLimit(limiter, apperrors.NewErrorHandler(nil, false))(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.10:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "buckets are per client")
}

func TestMetricsAndLogger(t *testing.T) {
	m := observability.NewMetrics("test")
	r := chi.NewRouter()
	r.Use(Logger(zap.NewNop()))
	r.Use(Metrics(m))
	r.Get("/api/albums/{id}", okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/albums/"+string(rune('1'+i)), nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/albums/{id}", "OK")))
}

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := chi.NewRouter()
	r.Use(Logger(zap.New(core)))
	r.Get("/health", okHandler)
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	for _, path := range []string{"/health", "/missing", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, int64(http.StatusBadGateway), entries[2].ContextMap()["status"])
}
