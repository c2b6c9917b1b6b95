package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/icg/internal/identity"
	"github.com/your-org/icg/internal/models"
)

const (
	personaSidecar = "persona.json"
	contentSidecar = "content.json"
	referenceFile  = "reference.jpg"
	embeddingFile  = "embedding.bin"
	thumbnailFile  = "thumbnail.jpg"

	// videoThumbRetryFrame is tried when the first frame of a video cannot
	// be decoded.
	videoThumbRetryFrame = 30

	lockShards = 64
)

// FilesystemStore keeps every record as a self-contained directory with a
// JSON sidecar, so a data root can be backed up or inspected with nothing
// but standard tools.
//
// Layout under the root:
//
//	personas/<id>/persona.json (+ reference.jpg, embedding.bin)
//	content/images/<id>/image.jpg, thumbnail.jpg, content.json
//	content/videos/<id>/<original-name>, thumbnail.jpg, content.json
//	content/exports/<export-id>.zip
type FilesystemStore struct {
	root          string
	thumbnailSize int
	extractor     identity.Extractor
	logger        *slog.Logger

	// Per-record write locks, sharded by id hash. Reads are lock-free:
	// sidecars are replaced atomically via rename.
	locks [lockShards]sync.Mutex
}

// NewFilesystemStore creates the directory skeleton under root and
// returns a ready store.
func NewFilesystemStore(root string, thumbnailSize int, extractor identity.Extractor, logger *slog.Logger) (*FilesystemStore, error) {
	s := &FilesystemStore{
		root:          root,
		thumbnailSize: thumbnailSize,
		extractor:     extractor,
		logger:        logger,
	}
	for _, dir := range []string{s.personasDir(), s.imagesDir(), s.videosDir(), s.exportsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *FilesystemStore) personasDir() string { return filepath.Join(s.root, "personas") }
func (s *FilesystemStore) imagesDir() string   { return filepath.Join(s.root, "content", "images") }
func (s *FilesystemStore) videosDir() string   { return filepath.Join(s.root, "content", "videos") }
func (s *FilesystemStore) exportsDir() string  { return filepath.Join(s.root, "content", "exports") }

func (s *FilesystemStore) lock(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.locks[h.Sum32()%lockShards]
}

// --- persona sidecar schema ---

// personaDoc mirrors the on-disk JSON. Pointer fields serialize as null
// when absent, matching records written by earlier tooling.
type personaDoc struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	CreatedAt      string         `json:"created_at"`
	ReferenceImage *string        `json:"reference_image"`
	Description    *string        `json:"description"`
	Attributes     map[string]any `json:"attributes"`
	EmbeddingPath  *string        `json:"embedding_path"`
	PreviewImages  []string       `json:"preview_images"`
}

func personaToDoc(p *models.Persona) personaDoc {
	doc := personaDoc{
		ID:            p.ID,
		Name:          p.Name,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339Nano),
		Attributes:    p.Attributes,
		PreviewImages: p.PreviewImages,
	}
	if doc.Attributes == nil {
		doc.Attributes = map[string]any{}
	}
	if doc.PreviewImages == nil {
		doc.PreviewImages = []string{}
	}
	if p.ReferenceImage != "" {
		doc.ReferenceImage = &p.ReferenceImage
	}
	if p.Description != "" {
		doc.Description = &p.Description
	}
	if p.EmbeddingPath != "" {
		doc.EmbeddingPath = &p.EmbeddingPath
	}
	return doc
}

func docToPersona(doc personaDoc) (*models.Persona, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", doc.CreatedAt, err)
	}
	p := &models.Persona{
		ID:            doc.ID,
		Name:          doc.Name,
		CreatedAt:     createdAt,
		Attributes:    doc.Attributes,
		PreviewImages: doc.PreviewImages,
	}
	if doc.ReferenceImage != nil {
		p.ReferenceImage = *doc.ReferenceImage
	}
	if doc.Description != nil {
		p.Description = *doc.Description
	}
	if doc.EmbeddingPath != nil {
		p.EmbeddingPath = *doc.EmbeddingPath
	}
	return p, nil
}

// --- persona operations ---

func (s *FilesystemStore) CreatePersona(ctx context.Context, name string, attributes map[string]any, description string, referenceImage []byte) (*models.Persona, error) {
	if name == "" {
		return nil, &models.InvalidArgumentError{Field: "name"}
	}

	p := &models.Persona{
		ID:          uuid.New().String(),
		Name:        name,
		CreatedAt:   time.Now().UTC(),
		Description: description,
		Attributes:  attributes,
	}

	dir := filepath.Join(s.personasDir(), p.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create persona dir: %w", err)
	}

	if len(referenceImage) > 0 {
		refPath := filepath.Join(dir, referenceFile)
		if err := os.WriteFile(refPath, referenceImage, 0o644); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("write reference image: %w", err)
		}
		p.ReferenceImage = refPath
	}

	if err := writeJSONAtomic(filepath.Join(dir, personaSidecar), personaToDoc(p)); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	s.logger.Info("persona created", "persona_id", p.ID, "name", p.Name,
		"has_reference", p.ReferenceImage != "")
	return p, nil
}

func (s *FilesystemStore) GetPersona(ctx context.Context, id string) (*models.Persona, error) {
	return s.loadPersona(id)
}

func (s *FilesystemStore) loadPersona(id string) (*models.Persona, error) {
	data, err := os.ReadFile(filepath.Join(s.personasDir(), id, personaSidecar))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read persona %s: %w", id, err)
	}
	var doc personaDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse persona %s: %w", id, err)
	}
	return docToPersona(doc)
}

func (s *FilesystemStore) ListPersonas(ctx context.Context) ([]*models.Persona, error) {
	entries, err := os.ReadDir(s.personasDir())
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}

	personas := make([]*models.Persona, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p, err := s.loadPersona(e.Name())
		if err != nil {
			s.logger.Warn("skipping unreadable persona record", "persona_id", e.Name(), "error", err)
			continue
		}
		if p != nil {
			personas = append(personas, p)
		}
	}

	sort.Slice(personas, func(i, j int) bool {
		return personas[i].CreatedAt.Before(personas[j].CreatedAt)
	})
	return personas, nil
}

func (s *FilesystemStore) UpdatePersona(ctx context.Context, id string, upd models.PersonaUpdate) (*models.Persona, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	p, err := s.loadPersona(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &models.NotFoundError{Kind: "persona", ID: id}
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Attributes != nil {
		p.Attributes = upd.Attributes
	}
	if upd.ReferenceImage != nil {
		p.ReferenceImage = *upd.ReferenceImage
	}
	if upd.EmbeddingPath != nil {
		p.EmbeddingPath = *upd.EmbeddingPath
	}
	if upd.PreviewImages != nil {
		p.PreviewImages = upd.PreviewImages
	}

	dir := filepath.Join(s.personasDir(), id)
	if err := writeJSONAtomic(filepath.Join(dir, personaSidecar), personaToDoc(p)); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *FilesystemStore) DeletePersona(ctx context.Context, id string) (bool, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	dir := filepath.Join(s.personasDir(), id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("delete persona %s: %w", id, err)
	}
	s.logger.Info("persona deleted", "persona_id", id)
	return true, nil
}

func (s *FilesystemStore) ExtractIdentityFeatures(ctx context.Context, id string) (*models.Persona, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	p, err := s.loadPersona(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &models.NotFoundError{Kind: "persona", ID: id}
	}
	if p.ReferenceImage == "" {
		return nil, &models.PreconditionError{
			Op:     "extract identity features",
			ID:     id,
			Reason: "persona has no reference image",
		}
	}

	vec, err := s.extractor.Extract(ctx, p.ReferenceImage)
	if err != nil {
		return nil, fmt.Errorf("extract identity features for %s: %w", id, err)
	}

	dir := filepath.Join(s.personasDir(), id)
	embPath := filepath.Join(dir, embeddingFile)
	if err := identity.WriteVector(embPath, vec); err != nil {
		return nil, err
	}
	p.EmbeddingPath = embPath

	if err := writeJSONAtomic(filepath.Join(dir, personaSidecar), personaToDoc(p)); err != nil {
		return nil, err
	}
	s.logger.Info("identity features extracted", "persona_id", id, "dim", len(vec))
	return p, nil
}

// --- content sidecar schema ---

type contentDoc struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	PersonaID     *string        `json:"persona_id"`
	CreatedAt     string         `json:"created_at"`
	FilePath      string         `json:"file_path"`
	ThumbnailPath string         `json:"thumbnail_path"`
	Metadata      map[string]any `json:"metadata"`
}

func contentToDoc(c *models.ContentItem) contentDoc {
	doc := contentDoc{
		ID:            c.ID,
		Type:          string(c.Type),
		CreatedAt:     c.CreatedAt.Format(time.RFC3339Nano),
		FilePath:      c.FilePath,
		ThumbnailPath: c.ThumbnailPath,
		Metadata:      c.Metadata,
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	if c.PersonaID != "" {
		doc.PersonaID = &c.PersonaID
	}
	return doc
}

func docToContent(doc contentDoc) (*models.ContentItem, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", doc.CreatedAt, err)
	}
	c := &models.ContentItem{
		ID:            doc.ID,
		Type:          models.ContentType(doc.Type),
		CreatedAt:     createdAt,
		FilePath:      doc.FilePath,
		ThumbnailPath: doc.ThumbnailPath,
		Metadata:      doc.Metadata,
	}
	if doc.PersonaID != nil {
		c.PersonaID = *doc.PersonaID
	}
	return c, nil
}

// --- content operations ---

func (s *FilesystemStore) SaveImage(ctx context.Context, src ImageSource, personaID string, metadata map[string]any) (*models.ContentItem, error) {
	if (src.Image == nil) == (src.Path == "") {
		return nil, &models.InvalidArgumentError{Field: "image", Value: "exactly one of image data or path required"}
	}

	c := &models.ContentItem{
		ID:        uuid.New().String(),
		Type:      models.ContentTypeImage,
		PersonaID: personaID,
		CreatedAt: time.Now().UTC(),
		Metadata:  metadata,
	}

	dir := filepath.Join(s.imagesDir(), c.ID)
	var err error
	c.FilePath, c.ThumbnailPath, err = writeImageFiles(dir, src, s.thumbnailSize)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	// Sidecar is written last: a sidecar on disk means the files behind
	// it are complete.
	if err := writeJSONAtomic(filepath.Join(dir, contentSidecar), contentToDoc(c)); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	s.logger.Info("image saved", "content_id", c.ID, "persona_id", personaID)
	return c, nil
}

func (s *FilesystemStore) SaveVideo(ctx context.Context, videoPath, personaID string, metadata map[string]any) (*models.ContentItem, error) {
	if videoPath == "" {
		return nil, &models.InvalidArgumentError{Field: "video_path"}
	}
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file: %w", err)
	}

	c := &models.ContentItem{
		ID:        uuid.New().String(),
		Type:      models.ContentTypeVideo,
		PersonaID: personaID,
		CreatedAt: time.Now().UTC(),
		Metadata:  metadata,
	}

	dir := filepath.Join(s.videosDir(), c.ID)
	var err error
	c.FilePath, c.ThumbnailPath, err = writeVideoFiles(ctx, dir, videoPath, s.thumbnailSize, s.logger)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	if err := writeJSONAtomic(filepath.Join(dir, contentSidecar), contentToDoc(c)); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	s.logger.Info("video saved", "content_id", c.ID, "persona_id", personaID,
		"file", filepath.Base(videoPath))
	return c, nil
}

func (s *FilesystemStore) GetContent(ctx context.Context, id string) (*models.ContentItem, error) {
	for _, dir := range []string{s.imagesDir(), s.videosDir()} {
		c, err := s.loadContent(filepath.Join(dir, id))
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	return nil, nil
}

func (s *FilesystemStore) loadContent(dir string) (*models.ContentItem, error) {
	data, err := os.ReadFile(filepath.Join(dir, contentSidecar))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read content record %s: %w", dir, err)
	}
	var doc contentDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse content record %s: %w", dir, err)
	}
	return docToContent(doc)
}

func (s *FilesystemStore) ListContent(ctx context.Context, filter ContentFilter) ([]*models.ContentItem, error) {
	var dirs []string
	switch filter.Type {
	case models.ContentTypeImage:
		dirs = []string{s.imagesDir()}
	case models.ContentTypeVideo:
		dirs = []string{s.videosDir()}
	case "":
		dirs = []string{s.imagesDir(), s.videosDir()}
	default:
		return nil, &models.InvalidArgumentError{Field: "type", Value: string(filter.Type)}
	}

	var items []*models.ContentItem
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("list content: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			c, err := s.loadContent(filepath.Join(dir, e.Name()))
			if err != nil {
				s.logger.Warn("skipping unreadable content record", "content_id", e.Name(), "error", err)
				continue
			}
			if c == nil {
				continue
			}
			if filter.PersonaID != "" && c.PersonaID != filter.PersonaID {
				continue
			}
			items = append(items, c)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *FilesystemStore) DeleteContent(ctx context.Context, id string) (bool, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	for _, base := range []string{s.imagesDir(), s.videosDir()} {
		dir := filepath.Join(base, id)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return false, fmt.Errorf("delete content %s: %w", id, err)
		}
		s.logger.Info("content deleted", "content_id", id)
		return true, nil
	}
	return false, nil
}

func (s *FilesystemStore) ExportContent(ctx context.Context, contentIDs []string, format models.ExportFormat, platform string) (string, error) {
	return exportArchive(ctx, s.exportsDir(), s.GetContent, contentIDs, format, platform, s.logger)
}

// --- file helpers ---

// writeJSONAtomic marshals v and replaces path in one rename, so readers
// never observe a partially written sidecar.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sidecar-*")
	if err != nil {
		return fmt.Errorf("create temp sidecar: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write sidecar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close sidecar: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace sidecar %s: %w", path, err)
	}
	return nil
}

func saveJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode jpeg %s: %w", path, err)
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
