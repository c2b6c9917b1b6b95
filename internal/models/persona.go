package models

import "time"

// Persona is a reusable generated identity. It is persisted as one
// self-contained directory per record with a persona.json sidecar.
type Persona struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	// ReferenceImage is the path of the persona-owned reference image,
	// empty when the persona was created from a description alone.
	ReferenceImage string         `json:"reference_image"`
	Description    string         `json:"description"`
	Attributes     map[string]any `json:"attributes"`
	// EmbeddingPath points at the identity feature vector blob. It is only
	// ever set after a reference image exists.
	EmbeddingPath string `json:"embedding_path"`
	// PreviewImages references ContentItem ids produced during persona
	// creation. References only; deleting the persona does not touch them.
	PreviewImages []string `json:"preview_images"`
}

// PersonaUpdate is a partial field merge applied by UpdatePersona.
// Nil pointers leave the stored value untouched. The record id is immutable.
type PersonaUpdate struct {
	Name           *string
	Description    *string
	Attributes     map[string]any
	ReferenceImage *string
	EmbeddingPath  *string
	PreviewImages  []string
}
