package storage

import (
	"context"
	"image"

	"github.com/your-org/icg/internal/models"
)

// ImageSource is the input to SaveImage: either a decoded image to be
// encoded as JPEG, or the path of an existing file to copy. Exactly one
// field must be set.
type ImageSource struct {
	Image image.Image
	Path  string
}

// ContentFilter narrows ListContent. Zero-value fields match everything;
// set fields combine conjunctively.
type ContentFilter struct {
	Type      models.ContentType
	PersonaID string
}

// Store is the persistence layer for personas and generated content.
//
// Lookups return (nil, nil) when the record does not exist; mutations of
// missing records return a NotFoundError. Deletes are idempotent and
// report whether anything was removed.
type Store interface {
	CreatePersona(ctx context.Context, name string, attributes map[string]any, description string, referenceImage []byte) (*models.Persona, error)
	GetPersona(ctx context.Context, id string) (*models.Persona, error)
	ListPersonas(ctx context.Context) ([]*models.Persona, error)
	UpdatePersona(ctx context.Context, id string, upd models.PersonaUpdate) (*models.Persona, error)
	DeletePersona(ctx context.Context, id string) (bool, error)

	// ExtractIdentityFeatures computes a feature vector from the persona's
	// reference image and persists it beside the record. Fails with a
	// PreconditionError when the persona has no reference image.
	ExtractIdentityFeatures(ctx context.Context, id string) (*models.Persona, error)

	SaveImage(ctx context.Context, src ImageSource, personaID string, metadata map[string]any) (*models.ContentItem, error)
	SaveVideo(ctx context.Context, videoPath, personaID string, metadata map[string]any) (*models.ContentItem, error)
	GetContent(ctx context.Context, id string) (*models.ContentItem, error)
	ListContent(ctx context.Context, filter ContentFilter) ([]*models.ContentItem, error)
	DeleteContent(ctx context.Context, id string) (bool, error)

	// ExportContent packages the named items into a ZIP archive and
	// returns its path. Items that are missing or unreadable are skipped;
	// if nothing could be exported a NoContentExportedError is returned.
	ExportContent(ctx context.Context, contentIDs []string, format models.ExportFormat, platform string) (string, error)
}
