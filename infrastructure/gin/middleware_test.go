package gin_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/storetrust/infrastructure/gin"
	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, checks map[string]infragin.HealthChecker, routes func(*gin.Engine)) *gin.Engine {
	t.Helper()

	b := infragin.NewServerBuilder("storetrust", 0).
		WithLogger(logger.NewNop()).
		WithVersion("test").
		WithRoutes(routes)
	for name, c := range checks {
		b.WithHealthCheck(name, c)
	}
	return b.Build().Router()
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	var seen string
	router := newTestServer(t, nil, func(r *gin.Engine) {
		r.GET("/ping", func(c *gin.Context) {
			seen = c.GetString("request_id")
			c.Status(http.StatusOK)
		})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(infragin.RequestIDHeader))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, "caller-id")
	router.ServeHTTP(w, req)
	assert.Equal(t, "caller-id", w.Header().Get(infragin.RequestIDHeader))
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	router := newTestServer(t, nil, func(r *gin.Engine) {
		r.GET("/boom", func(*gin.Context) { panic("boom") })
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth_DegradedCacheStillOK(t *testing.T) {
	router := newTestServer(t, map[string]infragin.HealthChecker{
		"cache": infragin.DegradableChecker(func() error { return errors.New("connection refused") }),
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)

	var resp infragin.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, infragin.HealthStatusDegraded, resp.Status)
	assert.Equal(t, "storetrust", resp.Service)
	assert.Equal(t, infragin.HealthStatusDegraded, resp.Checks["cache"].Status)
}
