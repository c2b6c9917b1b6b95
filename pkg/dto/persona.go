package dto

// CreatePersonaRequest is the JSON body of POST /v1/personas. A
// reference image can alternatively be supplied via multipart upload.
type CreatePersonaRequest struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Attributes  map[string]any `json:"attributes"`
}

// UpdatePersonaRequest carries a partial update; absent fields are left
// untouched.
type UpdatePersonaRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

type PersonaResponse struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	HasReference  bool           `json:"has_reference"`
	HasEmbedding  bool           `json:"has_embedding"`
	PreviewImages []string       `json:"preview_images"`
	CreatedAt     string         `json:"created_at"`
}

type SimilarPersonaResponse struct {
	PersonaID string  `json:"persona_id"`
	Name      string  `json:"name"`
	Score     float32 `json:"score"`
}
