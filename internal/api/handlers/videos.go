package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/icg/internal/models"
	"github.com/your-org/icg/internal/queue"
	"github.com/your-org/icg/internal/workflow"
	"github.com/your-org/icg/pkg/dto"
)

type VideoHandler struct {
	flow *workflow.Orchestrator
	// producer is nil when no queue is configured; renders then run
	// synchronously inside the request.
	producer *queue.Producer
}

func NewVideoHandler(flow *workflow.Orchestrator, producer *queue.Producer) *VideoHandler {
	return &VideoHandler{flow: flow, producer: producer}
}

// Create starts a video render. With a queue configured the job is
// dispatched to the worker pool and a job id is returned immediately;
// progress arrives on the events WebSocket.
func (h *VideoHandler) Create(c *gin.Context) {
	var req dto.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.producer == nil {
		video, err := h.flow.CreateVideo(c.Request.Context(), req.ImageID, req.VideoType, req.Settings)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, contentResponse(video))
		return
	}

	job := models.RenderJob{
		JobID:       uuid.New().String(),
		ImageID:     req.ImageID,
		VideoType:   req.VideoType,
		Settings:    req.Settings,
		RequestedAt: time.Now().UTC(),
	}
	if err := h.producer.PublishRenderJob(c.Request.Context(), job); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.VideoJobResponse{JobID: job.JobID, Status: "queued"})
}
