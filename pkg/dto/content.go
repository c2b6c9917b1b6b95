package dto

// GenerateContentRequest is the JSON body of POST /v1/content/generate.
type GenerateContentRequest struct {
	PersonaID   string         `json:"persona_id" binding:"required"`
	ContentType string         `json:"content_type" binding:"required"`
	Settings    map[string]any `json:"settings"`
	Count       int            `json:"count"`
}

type ContentResponse struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	PersonaID string         `json:"persona_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// CreateVideoRequest is the JSON body of POST /v1/videos.
type CreateVideoRequest struct {
	ImageID   string         `json:"image_id" binding:"required"`
	VideoType string         `json:"video_type" binding:"required"`
	Settings  map[string]any `json:"settings"`
}

// VideoJobResponse is returned when a render is queued asynchronously.
type VideoJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ExportRequest is the JSON body of POST /v1/export.
type ExportRequest struct {
	ContentIDs []string `json:"content_ids" binding:"required"`
	Format     string   `json:"format"`
	Platform   string   `json:"platform"`
}

type ExportResponse struct {
	ArchivePath string `json:"archive_path"`
	ObjectKey   string `json:"object_key,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

// ValidateRequest is the JSON body of POST /v1/validate. ReferenceID
// optionally names a second content item to compare the image against.
type ValidateRequest struct {
	ContentID   string `json:"content_id" binding:"required"`
	ReferenceID string `json:"reference_id"`
}

// ConsistencyRequest is the JSON body of POST /v1/validate/consistency.
type ConsistencyRequest struct {
	PersonaID string `json:"persona_id" binding:"required"`
}

type ValidateResponse struct {
	Score      float64            `json:"score"`
	Passed     bool               `json:"passed"`
	Threshold  float64            `json:"threshold"`
	Breakdown  map[string]float64 `json:"breakdown,omitempty"`
	ReportPath string             `json:"report_path,omitempty"`
}
