package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/icg/internal/models"
	"github.com/your-org/icg/internal/storage"
	"github.com/your-org/icg/internal/workflow"
	"github.com/your-org/icg/pkg/dto"
)

type ExportHandler struct {
	flow *workflow.Orchestrator
	// uploader is nil when no object storage is configured; archives
	// then stay local only.
	uploader *storage.ArchiveUploader
}

func NewExportHandler(flow *workflow.Orchestrator, uploader *storage.ArchiveUploader) *ExportHandler {
	return &ExportHandler{flow: flow, uploader: uploader}
}

func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path, err := h.flow.Export(c.Request.Context(), req.ContentIDs, models.ExportFormat(req.Format), req.Platform)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.ExportResponse{ArchivePath: path}
	if h.uploader != nil {
		key, err := h.uploader.Upload(c.Request.Context(), path)
		if err != nil {
			respondError(c, err)
			return
		}
		resp.ObjectKey = key
		if url, err := h.uploader.PresignedURL(c.Request.Context(), key, 24*time.Hour); err == nil {
			resp.DownloadURL = url
		}
	}
	c.JSON(http.StatusCreated, resp)
}
