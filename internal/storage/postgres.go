package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/icg/internal/config"
	"github.com/your-org/icg/internal/identity"
	"github.com/your-org/icg/internal/models"
)

// PostgresStore indexes record metadata in Postgres while media files
// stay on disk under the same layout the filesystem driver uses. The
// identity vector is additionally stored in a pgvector column, which
// enables similarity queries the sidecar layout cannot answer.
type PostgresStore struct {
	pool          *pgxpool.Pool
	root          string
	thumbnailSize int
	extractor     identity.Extractor
	logger        *slog.Logger
}

func NewPostgresStore(cfg config.DatabaseConfig, root string, thumbnailSize int, extractor identity.Extractor, logger *slog.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{
		pool:          pool,
		root:          root,
		thumbnailSize: thumbnailSize,
		extractor:     extractor,
		logger:        logger,
	}
	for _, dir := range []string{s.imagesDir(), s.videosDir(), s.exportsDir(), filepath.Join(root, "personas")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			pool.Close()
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) imagesDir() string  { return filepath.Join(s.root, "content", "images") }
func (s *PostgresStore) videosDir() string  { return filepath.Join(s.root, "content", "videos") }
func (s *PostgresStore) exportsDir() string { return filepath.Join(s.root, "content", "exports") }

// --- personas ---

func (s *PostgresStore) CreatePersona(ctx context.Context, name string, attributes map[string]any, description string, referenceImage []byte) (*models.Persona, error) {
	if name == "" {
		return nil, &models.InvalidArgumentError{Field: "name"}
	}

	p := &models.Persona{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Attributes:  attributes,
	}

	if len(referenceImage) > 0 {
		dir := filepath.Join(s.root, "personas", p.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create persona dir: %w", err)
		}
		refPath := filepath.Join(dir, referenceFile)
		if err := os.WriteFile(refPath, referenceImage, 0o644); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("write reference image: %w", err)
		}
		p.ReferenceImage = refPath
	}

	attrs, err := marshalJSONB(attributes)
	if err != nil {
		return nil, err
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO personas (id, name, description, attributes, reference_image, preview_images)
		 VALUES ($1, $2, $3, $4, $5, '[]'::jsonb) RETURNING created_at`,
		p.ID, p.Name, nullable(p.Description), attrs, nullable(p.ReferenceImage),
	).Scan(&p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create persona: %w", err)
	}

	s.logger.Info("persona created", "persona_id", p.ID, "name", p.Name,
		"has_reference", p.ReferenceImage != "")
	return p, nil
}

const personaColumns = `id, name, description, attributes, reference_image, embedding_path, preview_images, created_at`

func (s *PostgresStore) GetPersona(ctx context.Context, id string) (*models.Persona, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE id = $1`, id)
	p, err := scanPersona(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get persona: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPersonas(ctx context.Context) ([]*models.Persona, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+personaColumns+` FROM personas ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	defer rows.Close()

	var personas []*models.Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, fmt.Errorf("scan persona: %w", err)
		}
		personas = append(personas, p)
	}
	return personas, rows.Err()
}

func (s *PostgresStore) UpdatePersona(ctx context.Context, id string, upd models.PersonaUpdate) (*models.Persona, error) {
	p, err := s.GetPersona(ctx, id)
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

	attrs, err := marshalJSONB(p.Attributes)
	if err != nil {
		return nil, err
	}
	previews, err := marshalJSONB(p.PreviewImages)
	if err != nil {
		return nil, err
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE personas SET name = $1, description = $2, attributes = $3,
		        reference_image = $4, embedding_path = $5, preview_images = $6
		 WHERE id = $7`,
		p.Name, nullable(p.Description), attrs,
		nullable(p.ReferenceImage), nullable(p.EmbeddingPath), previews, id)
	if err != nil {
		return nil, fmt.Errorf("update persona: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) DeletePersona(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM personas WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete persona: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	os.RemoveAll(filepath.Join(s.root, "personas", id))
	s.logger.Info("persona deleted", "persona_id", id)
	return true, nil
}

func (s *PostgresStore) ExtractIdentityFeatures(ctx context.Context, id string) (*models.Persona, error) {
	p, err := s.GetPersona(ctx, id)
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

	dir := filepath.Join(s.root, "personas", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create persona dir: %w", err)
	}
	embPath := filepath.Join(dir, embeddingFile)
	if err := identity.WriteVector(embPath, vec); err != nil {
		return nil, err
	}
	p.EmbeddingPath = embPath

	_, err = s.pool.Exec(ctx,
		`UPDATE personas SET embedding = $1, embedding_path = $2 WHERE id = $3`,
		pgvector.NewVector(vec), embPath, id)
	if err != nil {
		return nil, fmt.Errorf("store identity features: %w", err)
	}
	s.logger.Info("identity features extracted", "persona_id", id, "dim", len(vec))
	return p, nil
}

// SimilarPersona is a persona ranked by identity-vector closeness.
type SimilarPersona struct {
	PersonaID string  `json:"persona_id"`
	Name      string  `json:"name"`
	Score     float32 `json:"score"`
}

// FindSimilarPersonas ranks other personas by cosine similarity of their
// identity vectors. Only available on this driver.
func (s *PostgresStore) FindSimilarPersonas(ctx context.Context, id string, limit int) ([]SimilarPersona, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name, 1 - (p.embedding <=> ref.embedding) AS score
		 FROM personas p, personas ref
		 WHERE ref.id = $1 AND p.id <> $1
		   AND p.embedding IS NOT NULL AND ref.embedding IS NOT NULL
		 ORDER BY p.embedding <=> ref.embedding
		 LIMIT $2`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("find similar personas: %w", err)
	}
	defer rows.Close()

	var matches []SimilarPersona
	for rows.Next() {
		var m SimilarPersona
		if err := rows.Scan(&m.PersonaID, &m.Name, &m.Score); err != nil {
			return nil, fmt.Errorf("scan similar persona: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// --- content ---

func (s *PostgresStore) SaveImage(ctx context.Context, src ImageSource, personaID string, metadata map[string]any) (*models.ContentItem, error) {
	if (src.Image == nil) == (src.Path == "") {
		return nil, &models.InvalidArgumentError{Field: "image", Value: "exactly one of image data or path required"}
	}

	c := &models.ContentItem{
		ID:        uuid.New().String(),
		Type:      models.ContentTypeImage,
		PersonaID: personaID,
		Metadata:  metadata,
	}

	dir := filepath.Join(s.imagesDir(), c.ID)
	var err error
	c.FilePath, c.ThumbnailPath, err = writeImageFiles(dir, src, s.thumbnailSize)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	if err := s.insertContent(ctx, c); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	s.logger.Info("image saved", "content_id", c.ID, "persona_id", personaID)
	return c, nil
}

func (s *PostgresStore) SaveVideo(ctx context.Context, videoPath, personaID string, metadata map[string]any) (*models.ContentItem, error) {
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
		Metadata:  metadata,
	}

	dir := filepath.Join(s.videosDir(), c.ID)
	var err error
	c.FilePath, c.ThumbnailPath, err = writeVideoFiles(ctx, dir, videoPath, s.thumbnailSize, s.logger)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	if err := s.insertContent(ctx, c); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	s.logger.Info("video saved", "content_id", c.ID, "persona_id", personaID)
	return c, nil
}

func (s *PostgresStore) insertContent(ctx context.Context, c *models.ContentItem) error {
	meta, err := marshalJSONB(c.Metadata)
	if err != nil {
		return err
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO content (id, content_type, persona_id, file_path, thumbnail_path, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		c.ID, string(c.Type), nullable(c.PersonaID), c.FilePath, c.ThumbnailPath, meta,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert content: %w", err)
	}
	return nil
}

const contentColumns = `id, content_type, persona_id, file_path, thumbnail_path, metadata, created_at`

func (s *PostgresStore) GetContent(ctx context.Context, id string) (*models.ContentItem, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+contentColumns+` FROM content WHERE id = $1`, id)
	c, err := scanContent(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListContent(ctx context.Context, filter ContentFilter) ([]*models.ContentItem, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, &models.InvalidArgumentError{Field: "type", Value: string(filter.Type)}
	}

	where := "WHERE TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.Type != "" {
		where += fmt.Sprintf(" AND content_type = $%d", argIdx)
		args = append(args, string(filter.Type))
		argIdx++
	}
	if filter.PersonaID != "" {
		where += fmt.Sprintf(" AND persona_id = $%d", argIdx)
		args = append(args, filter.PersonaID)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+contentColumns+` FROM content `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var items []*models.ContentItem
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (s *PostgresStore) DeleteContent(ctx context.Context, id string) (bool, error) {
	c, err := s.GetContent(ctx, id)
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, nil
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	os.RemoveAll(filepath.Dir(c.FilePath))
	s.logger.Info("content deleted", "content_id", id)
	return true, nil
}

func (s *PostgresStore) ExportContent(ctx context.Context, contentIDs []string, format models.ExportFormat, platform string) (string, error) {
	return exportArchive(ctx, s.exportsDir(), s.GetContent, contentIDs, format, platform, s.logger)
}

// --- scan helpers ---

func scanPersona(row pgx.Row) (*models.Persona, error) {
	var (
		p                          models.Persona
		description, refImg, embed *string
		attrs, previews            []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &description, &attrs, &refImg, &embed, &previews, &p.CreatedAt); err != nil {
		return nil, err
	}
	if description != nil {
		p.Description = *description
	}
	if refImg != nil {
		p.ReferenceImage = *refImg
	}
	if embed != nil {
		p.EmbeddingPath = *embed
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
			return nil, fmt.Errorf("parse attributes: %w", err)
		}
	}
	if len(previews) > 0 {
		if err := json.Unmarshal(previews, &p.PreviewImages); err != nil {
			return nil, fmt.Errorf("parse preview images: %w", err)
		}
	}
	return &p, nil
}

func scanContent(row pgx.Row) (*models.ContentItem, error) {
	var (
		c         models.ContentItem
		ctype     string
		personaID *string
		meta      []byte
	)
	if err := row.Scan(&c.ID, &ctype, &personaID, &c.FilePath, &c.ThumbnailPath, &meta, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Type = models.ContentType(ctype)
	if personaID != nil {
		c.PersonaID = *personaID
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
	}
	return &c, nil
}

func marshalJSONB(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("{}"), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return data, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
