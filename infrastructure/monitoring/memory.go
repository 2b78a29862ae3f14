// Package monitoring exposes runtime memory statistics for health checks.
package monitoring

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

const bytesPerMB = 1024 * 1024

// MemoryHealth is a point-in-time view of the Go runtime's memory use.
type MemoryHealth struct {
	Timestamp     time.Time `json:"timestamp"`
	HeapAllocMB   float64   `json:"heap_alloc_mb"`
	HeapInuseMB   float64   `json:"heap_inuse_mb"`
	HeapIdleMB    float64   `json:"heap_idle_mb"`
	StackInuseMB  float64   `json:"stack_inuse_mb"`
	NumGC         uint32    `json:"num_gc"`
	NumGoroutine  int       `json:"num_goroutine"`
	GOMaxProcs    int       `json:"gomaxprocs"`
	LastGCPauseMs float64   `json:"last_gc_pause_ms,omitempty"`
}

// ReadMemoryHealth samples runtime.MemStats.
func ReadMemoryHealth() MemoryHealth {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	h := MemoryHealth{
		Timestamp:    time.Now().UTC(),
		HeapAllocMB:  float64(stats.Alloc) / bytesPerMB,
		HeapInuseMB:  float64(stats.HeapInuse) / bytesPerMB,
		HeapIdleMB:   float64(stats.HeapIdle) / bytesPerMB,
		StackInuseMB: float64(stats.StackInuse) / bytesPerMB,
		NumGC:        stats.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
		GOMaxProcs:   runtime.GOMAXPROCS(0),
	}
	if stats.NumGC > 0 {
		h.LastGCPauseMs = float64(stats.PauseNs[(stats.NumGC+255)%256]) / float64(time.Millisecond)
	}
	return h
}

// MemoryHealthHandler serves ReadMemoryHealth as JSON.
func MemoryHealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, ReadMemoryHealth())
}
