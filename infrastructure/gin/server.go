// Package gin wraps gin-gonic with the middleware, health routes and graceful
// shutdown every storetrust HTTP surface shares.
package gin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/storetrust/infrastructure/logger"
)

// Server owns a gin engine and the http.Server that serves it.
type Server struct {
	router *gin.Engine
	http   *http.Server
	log    logger.Logger
	cfg    *Config
}

// NewServer installs recovery, request id and access logging, then setupRoutes.
func NewServer(cfg *Config, log logger.Logger, setupRoutes func(*gin.Engine)) *Server {
	cfg.SetDefaults()

	mode := gin.ReleaseMode
	if cfg.Debug {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	router := gin.New()
	router.Use(
		RecoveryMiddleware(log),
		RequestIDLoggerMiddleware(log),
		LoggerMiddleware(log),
	)
	if setupRoutes != nil {
		setupRoutes(router)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:         net.JoinHostPort("", strconv.Itoa(cfg.Port)),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
		cfg: cfg,
	}
}

// Router exposes the engine for tests that drive it with httptest.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is done, then drains in-flight requests for at most
// ShutdownTimeout. A listener failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("HTTP server listening",
		logger.String("addr", s.http.Addr),
		logger.String("service", s.cfg.ServiceName),
		logger.String("version", s.cfg.ServiceVersion),
	)

	serveErr := make(chan error, 1)
	go func() {
		err := s.http.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Draining HTTP server", logger.Duration("timeout", s.cfg.ShutdownTimeout))

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-serveErr
}
