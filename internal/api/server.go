package api

import (
	"time"

	"github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/storetrust/infrastructure/gin"
	infralogger "github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/internal/config"
	"github.com/jonesrussell/storetrust/internal/handler"
	"github.com/jonesrussell/storetrust/internal/telemetry"
)

const (
	defaultReadTimeout = 10 * time.Second
	defaultIdleTimeout = 60 * time.Second
	// writeTimeoutMargin leaves room to encode the response after the slowest check.
	writeTimeoutMargin = 5 * time.Second
)

// NewServer creates the HTTP server. cacheCheck may be nil when no cache
// backend is configured.
func NewServer(
	evaluateHandler *handler.EvaluateHandler,
	tel *telemetry.Provider,
	cacheCheck infragin.HealthChecker,
	cfg *config.Config,
	log infralogger.Logger,
) *infragin.Server {
	b := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithTimeouts(defaultReadTimeout, cfg.Service.CheckTimeout+writeTimeoutMargin, defaultIdleTimeout).
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, evaluateHandler, tel)
		})
	if cacheCheck != nil {
		b.WithHealthCheck("cache", cacheCheck)
	}
	return b.Build()
}
