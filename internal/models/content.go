package models

import "time"

// ContentType discriminates the two ContentItem variants. Every consumer
// is expected to switch exhaustively on it.
type ContentType string

const (
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
)

// Valid reports whether t is one of the known variants.
func (t ContentType) Valid() bool {
	return t == ContentTypeImage || t == ContentTypeVideo
}

// ContentItem is a stored generated artifact, image or video. The record
// exclusively owns FilePath and ThumbnailPath; PersonaID is a weak
// reference used for lookup only.
type ContentItem struct {
	ID        string      `json:"id"`
	Type      ContentType `json:"type"`
	PersonaID string      `json:"persona_id"`
	CreatedAt time.Time   `json:"created_at"`
	FilePath  string      `json:"file_path"`
	// ThumbnailPath is always set: saving content is not complete until
	// the thumbnail exists on disk.
	ThumbnailPath string         `json:"thumbnail_path"`
	Metadata      map[string]any `json:"metadata"`
}

// ExportFormat selects re-encoding behavior during export.
type ExportFormat string

const (
	ExportOriginal ExportFormat = "original"
	ExportWeb      ExportFormat = "web"
	ExportHighRes  ExportFormat = "high_res"
)

// JPEGQuality maps the export format to the encoder quality setting.
func (f ExportFormat) JPEGQuality() int {
	switch f {
	case ExportWeb:
		return 85
	case ExportHighRes:
		return 100
	default:
		return 95
	}
}
