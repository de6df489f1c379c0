// Package search exposes the search engine over HTTP.
package search

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appsearch "github.com/farescout/farescout/internal/app/search"
	"github.com/farescout/farescout/internal/domain/search"
	"github.com/farescout/farescout/pkg/common/logger"
	"github.com/farescout/farescout/pkg/common/uuid"
)

// Handler serves the search API routes.
type Handler struct {
	engine  *appsearch.Engine
	metrics APIMetrics
	logger  *logger.Logger
}

// NewHandler creates an API handler on top of the engine.
func NewHandler(engine *appsearch.Engine, metrics APIMetrics, log *logger.Logger) *Handler {
	return &Handler{engine: engine, metrics: metrics, logger: log.With("component", "search_api")}
}

// RegisterRoutes mounts the search API on the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(MetricsMiddleware(h.metrics))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := router.Group("/v1")
	v1.POST("/searches", h.startSearch)
	v1.GET("/searches/:id/progress", h.getProgress)
	v1.GET("/searches/:id/result", h.getResult)
	v1.DELETE("/searches/:id", h.cancelSearch)
}

// startSearch accepts a search request and returns its job ID immediately.
// Malformed JSON is rejected here; semantic validation happens inside the
// job, observable through progress polling like every other failure.
func (h *Handler) startSearch(c *gin.Context) {
	h.metrics.IncSearchRequestsTotal(c.Request.Context())

	var constraints search.Constraints
	if err := c.ShouldBindJSON(&constraints); err != nil {
		h.metrics.IncSearchRequestErrors(c.Request.Context(), "invalid_body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	jobID, err := h.engine.StartJob(c.Request.Context(), constraints)
	if err != nil {
		h.metrics.IncSearchRequestErrors(c.Request.Context(), "start_failed")
		h.logger.Error(c.Request.Context(), "failed to start search job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start search"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID.String()})
}

func (h *Handler) getProgress(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	progress, err := h.engine.PollProgress(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "failed to read progress", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read progress"})
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *Handler) getResult(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	report, err := h.engine.PollResult(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, search.ErrNoJobResult) {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not available"})
			return
		}
		h.logger.Error(c.Request.Context(), "failed to read result", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read result"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) cancelSearch(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	if !h.engine.CancelJob(jobID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no running job with that id"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID.String(), "status": "canceling"})
}

func (h *Handler) jobID(c *gin.Context) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return uuid.Nil, false
	}
	return jobID, true
}
