package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/evaluator"
	"github.com/jonesrussell/storetrust/internal/handler"
	"github.com/jonesrussell/storetrust/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvaluator struct {
	gotURL string
	err    error
}

func (f *fakeEvaluator) Evaluate(_ context.Context, rawURL string) (domain.AggregateResult, error) {
	f.gotURL = rawURL
	if f.err != nil {
		return domain.AggregateResult{}, f.err
	}
	if strings.TrimSpace(rawURL) == "" {
		return domain.AggregateResult{}, evaluator.ErrEmptyURL
	}
	return domain.AggregateResult{
		URL:     "https://shop.example/",
		Domain:  "shop.example",
		Score:   82,
		Level:   domain.LevelSafe,
		Bullets: []domain.Bullet{{Icon: domain.IconCheck, Text: "Domain registered 8 years ago"}},
	}, nil
}

func setupRouter(t *testing.T, e handler.Evaluator) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewEvaluateHandler(e)
	r.GET("/api/v1/evaluate", h.Get)
	r.POST("/api/v1/evaluate", h.Post)
	return r
}

func TestEvaluate_Get(t *testing.T) {
	fake := &fakeEvaluator{}
	r := setupRouter(t, fake)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/evaluate?url=https%3A%2F%2Fshop.example%2Fcart", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://shop.example/cart", fake.gotURL)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 82, body["score"], 0)
	assert.Equal(t, "safe", body["level"])
	assert.Equal(t, "shop.example", body["domain"])
}

func TestEvaluate_Post(t *testing.T) {
	fake := &fakeEvaluator{}
	r := setupRouter(t, fake)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", strings.NewReader(`{"url":"shop.example"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shop.example", fake.gotURL)
}

func TestEvaluate_BadRequests(t *testing.T) {
	r := setupRouter(t, &fakeEvaluator{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/evaluate", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", strings.NewReader(`{"url":`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluate_ConfigurationErrorIs500(t *testing.T) {
	r := setupRouter(t, &fakeEvaluator{err: fmt.Errorf("%w: policy v2 assigned 95", scoring.ErrWeightInvariant)})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/evaluate?url=shop.example", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "CONFIGURATION_ERROR")
}

func TestEvaluate_DeadlineIs504(t *testing.T) {
	r := setupRouter(t, &fakeEvaluator{err: context.DeadlineExceeded})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/evaluate?url=shop.example", http.NoBody))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "TIMEOUT")
}
