package gin

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/storetrust/infrastructure/logger"
)

// ServerBuilder provides a fluent API for building HTTP servers.
type ServerBuilder struct {
	config       *Config
	logger       logger.Logger
	setupRoutes  func(*gin.Engine)
	healthChecks map[string]HealthChecker
}

// NewServerBuilder creates a builder for serviceName listening on port.
func NewServerBuilder(serviceName string, port int) *ServerBuilder {
	return &ServerBuilder{
		config:       &Config{ServiceName: serviceName, Port: port},
		healthChecks: make(map[string]HealthChecker),
	}
}

func (b *ServerBuilder) WithLogger(log logger.Logger) *ServerBuilder {
	b.logger = log
	return b
}

func (b *ServerBuilder) WithDebug(debug bool) *ServerBuilder {
	b.config.Debug = debug
	return b
}

func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.config.ServiceVersion = version
	return b
}

// WithTimeouts sets the read, write and idle timeouts of the HTTP server.
func (b *ServerBuilder) WithTimeouts(read, write, idle time.Duration) *ServerBuilder {
	b.config.ReadTimeout = read
	b.config.WriteTimeout = write
	b.config.IdleTimeout = idle
	return b
}

// WithHealthCheck adds a named check reported by GET /health.
func (b *ServerBuilder) WithHealthCheck(name string, checker HealthChecker) *ServerBuilder {
	b.healthChecks[name] = checker
	return b
}

// WithRoutes sets the service-specific route setup function.
func (b *ServerBuilder) WithRoutes(setupRoutes func(*gin.Engine)) *ServerBuilder {
	b.setupRoutes = setupRoutes
	return b
}

// Build creates the server with health routes registered ahead of service routes.
func (b *ServerBuilder) Build() *Server {
	if b.logger == nil {
		b.logger = logger.Must(logger.Config{Development: b.config.Debug})
	}

	setup := func(router *gin.Engine) {
		RegisterHealthRoutes(router, b.config.ServiceName, b.config.ServiceVersion, b.healthChecks)
		if b.setupRoutes != nil {
			b.setupRoutes(router)
		}
	}

	return NewServer(b.config, b.logger, setup)
}
