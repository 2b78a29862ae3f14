package gin

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus represents the status of a health check.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult represents the result of an individual health check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthChecker performs one named health check.
type HealthChecker func() CheckResult

var startOnce struct {
	sync.Once
	at time.Time
}

// RegisterHealthRoutes adds GET and HEAD /health.
func RegisterHealthRoutes(router *gin.Engine, serviceName, version string, checks map[string]HealthChecker) {
	startOnce.Do(func() { startOnce.at = time.Now() })

	router.GET("/health", func(c *gin.Context) {
		resp := HealthResponse{
			Status:  HealthStatusHealthy,
			Service: serviceName,
			Version: version,
			Uptime:  time.Since(startOnce.at).Truncate(time.Second).String(),
		}

		if len(checks) > 0 {
			resp.Checks = make(map[string]CheckResult, len(checks))
			for name, check := range checks {
				result := check()
				resp.Checks[name] = result
				resp.Status = worse(resp.Status, result.Status)
			}
		}

		code := http.StatusOK
		if resp.Status == HealthStatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	})

	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
}

func worse(a, b HealthStatus) HealthStatus {
	rank := map[HealthStatus]int{HealthStatusHealthy: 0, HealthStatusDegraded: 1, HealthStatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// DegradableChecker wraps a ping for an optional dependency: a failing ping
// reports degraded rather than unhealthy.
func DegradableChecker(ping func() error) HealthChecker {
	return func() CheckResult {
		start := time.Now()
		if err := ping(); err != nil {
			return CheckResult{
				Status:  HealthStatusDegraded,
				Message: err.Error(),
				Latency: time.Since(start).String(),
			}
		}
		return CheckResult{Status: HealthStatusHealthy, Latency: time.Since(start).String()}
	}
}
