package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/storetrust/infrastructure/monitoring"
	"github.com/jonesrussell/storetrust/internal/handler"
	"github.com/jonesrussell/storetrust/internal/telemetry"
)

// SetupRoutes configures all API routes.
// Health routes are registered by the infrastructure gin builder.
func SetupRoutes(router *gin.Engine, evaluateHandler *handler.EvaluateHandler, tel *telemetry.Provider) {
	router.GET("/health/memory", monitoring.MemoryHealthHandler)
	router.GET("/metrics", gin.WrapH(tel.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(tel.HTTP.Middleware())
	v1.GET("/evaluate", evaluateHandler.Get)
	v1.POST("/evaluate", evaluateHandler.Post)
}
