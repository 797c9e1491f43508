// Package server exposes the job engine over HTTP for the admin client:
// enqueue, status polling and queue stats. No synchronous handler response
// is available through this API; callers poll the job until it is terminal.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/usman-manii/wallpaintingservices-sub000/jobqueue"
)

type JobHandler struct {
	store  jobqueue.Store
	logger *slog.Logger
}

func NewJobHandler(store jobqueue.Store, logger *slog.Logger) *JobHandler {
	return &JobHandler{store: store, logger: logger}
}

type createJobRequest struct {
	Type    string         `json:"type" binding:"required"`
	Payload map[string]any `json:"payload"`
}

// CreateJob handles POST /api/v1/jobs.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type is required"})
		return
	}

	if req.Payload == nil {
		req.Payload = map[string]any{}
	}

	id, err := h.store.Enqueue(c.Request.Context(), req.Type, req.Payload)
	if err != nil {
		h.logger.Error("enqueue failed",
			slog.String("job_type", req.Type),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue job"})
		return
	}

	h.logger.Info("job enqueued",
		slog.String("job_id", id.String()),
		slog.String("job_type", req.Type),
	)

	c.JSON(http.StatusAccepted, gin.H{
		"jobId":  id.String(),
		"status": jobqueue.StatusPending,
	})
}

// GetJob handles GET /api/v1/jobs/:id.
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid UUID"})
		return
	}

	job, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, jobqueue.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.Error("get job failed",
			slog.String("job_id", id.String()),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job"})
		return
	}

	resp := gin.H{
		"jobId":     job.ID.String(),
		"type":      job.Type,
		"status":    job.Status,
		"attempts":  job.Attempts,
		"createdAt": job.CreatedAt,
	}
	if job.Result != nil {
		resp["result"] = job.Result
	}
	if job.Error != nil {
		resp["error"] = *job.Error
	}
	if job.ProcessedAt != nil {
		resp["processedAt"] = job.ProcessedAt
	}

	c.JSON(http.StatusOK, resp)
}

// Stats handles GET /api/v1/jobs/stats.
func (h *JobHandler) Stats(c *gin.Context) {
	counts, err := h.store.Counts(c.Request.Context())
	if err != nil {
		h.logger.Error("stats failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    counts.Total,
		"byStatus": counts.ByStatus,
	})
}
