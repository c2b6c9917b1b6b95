package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/icg/internal/models"
	"github.com/your-org/icg/internal/storage"
	"github.com/your-org/icg/internal/workflow"
	"github.com/your-org/icg/pkg/dto"
)

type PersonaHandler struct {
	store storage.Store
	flow  *workflow.Orchestrator
}

func NewPersonaHandler(store storage.Store, flow *workflow.Orchestrator) *PersonaHandler {
	return &PersonaHandler{store: store, flow: flow}
}

func personaResponse(p *models.Persona) dto.PersonaResponse {
	previews := p.PreviewImages
	if previews == nil {
		previews = []string{}
	}
	return dto.PersonaResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Attributes:    p.Attributes,
		HasReference:  p.ReferenceImage != "",
		HasEmbedding:  p.EmbeddingPath != "",
		PreviewImages: previews,
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

// Create runs the full persona creation workflow. Accepts JSON, or
// multipart form data when a reference image is uploaded.
func (h *PersonaHandler) Create(c *gin.Context) {
	var (
		req      dto.CreatePersonaRequest
		refImage []byte
	)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		req.Name = c.PostForm("name")
		req.Description = c.PostForm("description")
		if attrs := c.PostForm("attributes"); attrs != "" {
			if err := json.Unmarshal([]byte(attrs), &req.Attributes); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attributes JSON"})
				return
			}
		}
		if file, err := c.FormFile("reference_image"); err == nil {
			f, err := file.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable reference image"})
				return
			}
			defer f.Close()
			refImage, err = io.ReadAll(f)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable reference image"})
				return
			}
		}
		if req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	p, err := h.flow.CreatePersona(c.Request.Context(), req.Name, req.Description, req.Attributes, refImage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, personaResponse(p))
}

func (h *PersonaHandler) List(c *gin.Context) {
	personas, err := h.store.ListPersonas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.PersonaResponse, 0, len(personas))
	for _, p := range personas {
		resp = append(resp, personaResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"personas": resp, "total": len(resp)})
}

func (h *PersonaHandler) Get(c *gin.Context) {
	p, err := h.store.GetPersona(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "persona not found"})
		return
	}
	c.JSON(http.StatusOK, personaResponse(p))
}

func (h *PersonaHandler) Update(c *gin.Context) {
	var req dto.UpdatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.store.UpdatePersona(c.Request.Context(), c.Param("id"), models.PersonaUpdate{
		Name:        req.Name,
		Description: req.Description,
		Attributes:  req.Attributes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, personaResponse(p))
}

func (h *PersonaHandler) Delete(c *gin.Context) {
	removed, err := h.store.DeletePersona(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "persona not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ExtractIdentity recomputes the persona's identity feature vector.
func (h *PersonaHandler) ExtractIdentity(c *gin.Context) {
	p, err := h.store.ExtractIdentityFeatures(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, personaResponse(p))
}

// Similar ranks other personas by identity-vector closeness. Only
// available when the Postgres driver backs the store.
func (h *PersonaHandler) Similar(c *gin.Context) {
	pg, ok := h.store.(*storage.PostgresStore)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "similarity search requires the postgres storage driver"})
		return
	}

	matches, err := pg.FindSimilarPersonas(c.Request.Context(), c.Param("id"), 5)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.SimilarPersonaResponse, 0, len(matches))
	for _, m := range matches {
		resp = append(resp, dto.SimilarPersonaResponse{
			PersonaID: m.PersonaID,
			Name:      m.Name,
			Score:     m.Score,
		})
	}
	c.JSON(http.StatusOK, gin.H{"matches": resp})
}
