package models

import "time"

// RenderJob is a queued video-creation request consumed by the render
// worker. Settings carries the raw caller-supplied map; the workflow layer
// projects it into a typed form before use.
type RenderJob struct {
	JobID       string         `json:"job_id"`
	ImageID     string         `json:"image_id"`
	VideoType   string         `json:"video_type"`
	Settings    map[string]any `json:"settings,omitempty"`
	RequestedAt time.Time      `json:"requested_at"`
}

// WorkflowEvent is published on the events stream as workflows progress,
// and broadcast to WebSocket clients by the API.
type WorkflowEvent struct {
	Type      string    `json:"type"` // e.g. "render_completed", "render_failed"
	JobID     string    `json:"job_id,omitempty"`
	PersonaID string    `json:"persona_id,omitempty"`
	ContentID string    `json:"content_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
