package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/your-org/icg/internal/models"
	"github.com/your-org/icg/internal/storage"
	"github.com/your-org/icg/internal/workflow"
	"github.com/your-org/icg/pkg/dto"
)

type ContentHandler struct {
	store storage.Store
	flow  *workflow.Orchestrator
}

func NewContentHandler(store storage.Store, flow *workflow.Orchestrator) *ContentHandler {
	return &ContentHandler{store: store, flow: flow}
}

func contentResponse(c *models.ContentItem) dto.ContentResponse {
	return dto.ContentResponse{
		ID:        c.ID,
		Type:      string(c.Type),
		PersonaID: c.PersonaID,
		Metadata:  c.Metadata,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

// Generate renders a batch of images for a persona.
func (h *ContentHandler) Generate(c *gin.Context) {
	var req dto.GenerateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.flow.GenerateContent(c.Request.Context(), req.PersonaID, req.ContentType, req.Settings, req.Count)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.ContentResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, contentResponse(item))
	}
	c.JSON(http.StatusCreated, gin.H{"content": resp, "total": len(resp)})
}

// Upload stores an externally produced image.
func (h *ContentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	tmpDir, err := os.MkdirTemp("", "upload-")
	if err != nil {
		respondError(c, err)
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		respondError(c, err)
		return
	}

	item, err := h.store.SaveImage(c.Request.Context(), storage.ImageSource{Path: tmpPath},
		c.PostForm("persona_id"), map[string]any{"source": "upload", "filename": file.Filename})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contentResponse(item))
}

func (h *ContentHandler) List(c *gin.Context) {
	filter := storage.ContentFilter{
		Type:      models.ContentType(c.Query("type")),
		PersonaID: c.Query("persona_id"),
	}

	items, err := h.store.ListContent(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.ContentResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, contentResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{"content": resp, "total": len(resp)})
}

func (h *ContentHandler) Get(c *gin.Context) {
	item, err := h.store.GetContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}
	c.JSON(http.StatusOK, contentResponse(item))
}

func (h *ContentHandler) Delete(c *gin.Context) {
	removed, err := h.store.DeleteContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// File serves the content's media file.
func (h *ContentHandler) File(c *gin.Context) {
	h.serveContentFile(c, func(item *models.ContentItem) string { return item.FilePath })
}

// Thumbnail serves the content's thumbnail.
func (h *ContentHandler) Thumbnail(c *gin.Context) {
	h.serveContentFile(c, func(item *models.ContentItem) string { return item.ThumbnailPath })
}

func (h *ContentHandler) serveContentFile(c *gin.Context, pick func(*models.ContentItem) string) {
	item, err := h.store.GetContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}

	path := pick(item)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file missing on disk"})
		return
	}
	c.File(path)
}
