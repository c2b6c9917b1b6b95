package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/icg/internal/models"
	"github.com/your-org/icg/internal/quality"
	"github.com/your-org/icg/internal/storage"
	"github.com/your-org/icg/pkg/dto"
)

type ValidateHandler struct {
	store     storage.Store
	validator *quality.Validator
	reportDir string
	suite     *quality.Suite
}

func NewValidateHandler(store storage.Store, validator *quality.Validator, reportDir string) *ValidateHandler {
	return &ValidateHandler{
		store:     store,
		validator: validator,
		reportDir: reportDir,
		suite:     quality.NewSuite(store, validator, reportDir, slog.Default()),
	}
}

// Validate scores one content item and persists the report.
func (h *ValidateHandler) Validate(c *gin.Context) {
	var req dto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.store.GetContent(c.Request.Context(), req.ContentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}

	referencePath := ""
	if req.ReferenceID != "" {
		ref, err := h.store.GetContent(c.Request.Context(), req.ReferenceID)
		if err != nil {
			respondError(c, err)
			return
		}
		if ref == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "reference content not found"})
			return
		}
		referencePath = ref.FilePath
	}

	var report quality.Report
	switch item.Type {
	case models.ContentTypeImage:
		report, err = h.validator.ValidateImageFile(c.Request.Context(), item.FilePath, referencePath)
	case models.ContentTypeVideo:
		report, err = h.validator.ValidateVideo(c.Request.Context(), item.FilePath)
	default:
		err = fmt.Errorf("unknown content type %q", item.Type)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	reportPath, err := quality.SaveReport(h.reportDir, item.ID, report)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ValidateResponse{
		Score:      report.Score,
		Passed:     report.Passed,
		Threshold:  report.Threshold,
		Breakdown:  report.Breakdown,
		ReportPath: reportPath,
	})
}

// Consistency compares a persona's generated images against its
// reference. Without a reference image the first preview stands in.
func (h *ValidateHandler) Consistency(c *gin.Context) {
	var req dto.ConsistencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.store.GetPersona(c.Request.Context(), req.PersonaID)
	if err != nil {
		respondError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "persona not found"})
		return
	}

	items, err := h.store.ListContent(c.Request.Context(), storage.ContentFilter{
		Type:      models.ContentTypeImage,
		PersonaID: p.ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	paths := make([]string, 0, len(items))
	for _, item := range items {
		paths = append(paths, item.FilePath)
	}

	reference := p.ReferenceImage
	if reference == "" {
		if len(paths) == 0 {
			respondError(c, &models.InvalidArgumentError{Field: "reference image"})
			return
		}
		reference = paths[0]
		paths = paths[1:]
		if len(paths) == 0 {
			c.JSON(http.StatusOK, dto.ValidateResponse{
				Score: 10, Passed: true, Threshold: h.validator.MinScore(),
			})
			return
		}
	}

	report, err := h.validator.PersonaConsistency(c.Request.Context(), reference, paths)
	if err != nil {
		respondError(c, err)
		return
	}

	reportPath, err := quality.SaveReport(h.reportDir, p.ID, report)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ValidateResponse{
		Score:      report.Score,
		Passed:     report.Passed,
		Threshold:  report.Threshold,
		Breakdown:  report.Breakdown,
		ReportPath: reportPath,
	})
}

// Report runs the full validation suite across the catalog and returns
// the aggregate document.
func (h *ValidateHandler) Report(c *gin.Context) {
	report, path, err := h.suite.Run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report, "report_path": path})
}
