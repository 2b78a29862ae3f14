package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	infralogger "github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/evaluator"
	"github.com/jonesrussell/storetrust/internal/scoring"
)

// Evaluator produces a verdict for a URL.
type Evaluator interface {
	Evaluate(ctx context.Context, rawURL string) (domain.AggregateResult, error)
}

// EvaluateRequest is the POST body of /api/v1/evaluate.
type EvaluateRequest struct {
	URL string `json:"url"`
}

// EvaluateHandler serves trust evaluations.
type EvaluateHandler struct {
	evaluator Evaluator
}

// NewEvaluateHandler creates an EvaluateHandler.
func NewEvaluateHandler(e Evaluator) *EvaluateHandler {
	return &EvaluateHandler{evaluator: e}
}

// Get handles GET /api/v1/evaluate?url=...
func (h *EvaluateHandler) Get(c *gin.Context) {
	h.respond(c, c.Query("url"))
}

// Post handles POST /api/v1/evaluate with a JSON body.
func (h *EvaluateHandler) Post(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respond(c, req.URL)
}

func (h *EvaluateHandler) respond(c *gin.Context, rawURL string) {
	result, err := h.evaluator.Evaluate(c.Request.Context(), rawURL)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, evaluator.ErrEmptyURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, scoring.ErrInvalidPolicy), errors.Is(err, scoring.ErrWeightInvariant):
		infralogger.FromContext(c.Request.Context()).Error("Scoring configuration error",
			infralogger.String("url", rawURL),
			infralogger.Error(err),
		)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scoring configuration error", "code": "CONFIGURATION_ERROR"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "evaluation timed out", "code": "TIMEOUT"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
	}
}
