package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_back_end/internal/auth"
	"catalog_back_end/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func protectedEngine(t *testing.T, tokens *auth.TokenService) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.GET("/admin/verify", middleware.AuthRequired(tokens, discardLogger()), func(c *gin.Context) {
		p, ok := middleware.PrincipalFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"username": p.Username})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tokens, err := auth.NewTokenService("secret", auth.WithClock(clock))
	require.NoError(t, err)
	other, err := auth.NewTokenService("other-secret", auth.WithClock(clock))
	require.NoError(t, err)
	old, err := auth.NewTokenService("secret", auth.WithClock(func() time.Time { return now.Add(-25 * time.Hour) }))
	require.NoError(t, err)

	valid, err := tokens.Issue("admin")
	require.NoError(t, err)
	forged, err := other.Issue("admin")
	require.NoError(t, err)
	expired, err := old.Issue("admin")
	require.NoError(t, err)

	engine := protectedEngine(t, tokens)

	t.Run("valid bearer token", func(t *testing.T) {
		for _, scheme := range []string{"Bearer", "bearer"} {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin/verify", nil)
			req.Header.Set("Authorization", scheme+" "+valid)
			engine.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"username":"admin"}`, w.Body.String())
		}
	})

	rejected := map[string]string{
		"missing header":   "",
		"wrong scheme":     "Basic " + valid,
		"empty token":      "Bearer ",
		"garbage":          "Bearer not-a-jwt",
		"other secret":     "Bearer " + forged,
		"expired":          "Bearer " + expired,
		"no scheme at all": valid,
	}
	for name, header := range rejected {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin/verify", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			engine.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"Token invalide"}`, w.Body.String())
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestPrincipalFromWithoutAuth(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := middleware.PrincipalFrom(c)
	assert.False(t, ok)
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)

	r := gin.New()
	r.Use(metrics.Handler())
	r.GET("/api/products/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/api/products/a", "/api/products/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("GET", "/api/products/:id", "204")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("GET", "unmatched", "404")), 0)

	metrics.ObserveLogin(middleware.LoginFailure)
	metrics.ObserveLogin(middleware.LoginFailure)
	metrics.ObserveLogin(middleware.LoginSuccess)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.LoginAttempts.WithLabelValues(middleware.LoginFailure)), 0)

	var nilMetrics *middleware.Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveLogin(middleware.LoginSuccess) })
}
