package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/storetrust/infrastructure/gin"
	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/internal/api"
	"github.com/jonesrussell/storetrust/internal/config"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/handler"
	"github.com/jonesrussell/storetrust/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticEvaluator struct{}

func (staticEvaluator) Evaluate(context.Context, string) (domain.AggregateResult, error) {
	return domain.AggregateResult{Domain: "shop.example", Score: 70, Level: domain.LevelSafe}, nil
}

func newRouter(t *testing.T, cacheErr error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load("testdata/missing.yml")
	require.NoError(t, err)

	tel := telemetry.NewProvider(prometheus.NewRegistry())
	tel.RecordEvaluation("safe", false, 0)

	check := infragin.DegradableChecker(func() error { return cacheErr })
	srv := api.NewServer(handler.NewEvaluateHandler(staticEvaluator{}), tel, check, cfg, logger.NewNop())
	return srv.Router()
}

func TestServer_Routes(t *testing.T) {
	r := newRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/evaluate?url=shop.example", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storetrust_evaluations_total")
	assert.Contains(t, w.Body.String(), `storetrust_http_requests_total{method="GET",route="/api/v1/evaluate",status="200"} 1`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/memory", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_HealthDegradesWithCache(t *testing.T) {
	r := newRouter(t, errors.New("redis: connection refused"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var body infragin.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, infragin.HealthStatusDegraded, body.Status)
	assert.Equal(t, "storetrust", body.Service)
	assert.Equal(t, infragin.HealthStatusDegraded, body.Checks["cache"].Status)
}
