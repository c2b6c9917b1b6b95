package storage

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/icg/internal/models"
)

// stubExtractor returns a fixed vector without reading the image.
type stubExtractor struct {
	vec []float32
	err error
}

func (s *stubExtractor) Extract(ctx context.Context, imagePath string) ([]float32, error) {
	return s.vec, s.err
}

func newTestStore(t *testing.T) *FilesystemStore {
	t.Helper()
	s, err := NewFilesystemStore(t.TempDir(), 200,
		&stubExtractor{vec: []float32{0.1, 0.2, 0.3}},
		slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)
	return s
}

func testImageBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	path := filepath.Join(t.TempDir(), "img.jpg")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, img, nil))
	require.NoError(t, f.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8((x * 7) % 256), uint8((y * 13) % 256), 64, 255})
		}
	}
	return img
}

func TestCreatePersonaWritesSidecar(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePersona(ctx, "Ava", map[string]any{"age_range": "25-35"}, "", nil)
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	data, err := os.ReadFile(filepath.Join(s.personasDir(), p.ID, personaSidecar))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Ava", doc["name"])
	assert.Nil(t, doc["reference_image"], "absent reference must serialize as null")
	assert.Nil(t, doc["embedding_path"])
	assert.Equal(t, []any{}, doc["preview_images"])
}

func TestCreatePersonaRequiresName(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreatePersona(context.Background(), "", nil, "", nil)
	var invalid *models.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "name", invalid.Field)
}

func TestCreatePersonaStoresReferenceImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePersona(ctx, "Ava", nil, "", testImageBytes(t, 64, 64))
	require.NoError(t, err)
	require.NotEmpty(t, p.ReferenceImage)
	assert.FileExists(t, p.ReferenceImage)
}

func TestGetPersonaMissingReturnsNilNil(t *testing.T) {
	s := newTestStore(t)

	p, err := s.GetPersona(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestUpdatePersonaMergesFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePersona(ctx, "Ava", map[string]any{"gender": "woman"}, "initial", nil)
	require.NoError(t, err)

	name := "Ava Prime"
	updated, err := s.UpdatePersona(ctx, p.ID, models.PersonaUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ava Prime", updated.Name)
	assert.Equal(t, "initial", updated.Description, "untouched fields survive")
	assert.Equal(t, p.ID, updated.ID)

	reloaded, err := s.GetPersona(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ava Prime", reloaded.Name)
}

func TestUpdatePersonaMissing(t *testing.T) {
	s := newTestStore(t)

	name := "x"
	_, err := s.UpdatePersona(context.Background(), "nope", models.PersonaUpdate{Name: &name})
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "persona", notFound.Kind)
}

func TestDeletePersonaIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePersona(ctx, "Ava", nil, "", nil)
	require.NoError(t, err)

	removed, err := s.DeletePersona(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeletePersona(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, removed, "second delete reports nothing removed")
}

func TestExtractIdentityFeatures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePersona(ctx, "Ava", nil, "", testImageBytes(t, 32, 32))
	require.NoError(t, err)

	p, err = s.ExtractIdentityFeatures(ctx, p.ID)
	require.NoError(t, err)
	require.NotEmpty(t, p.EmbeddingPath)
	assert.FileExists(t, p.EmbeddingPath)

	// 3 float32 values, little endian
	data, err := os.ReadFile(p.EmbeddingPath)
	require.NoError(t, err)
	assert.Len(t, data, 12)
}

func TestExtractIdentityFeaturesWithoutReference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePersona(ctx, "Ava", nil, "", nil)
	require.NoError(t, err)

	_, err = s.ExtractIdentityFeatures(ctx, p.ID)
	var pre *models.PreconditionError
	require.ErrorAs(t, err, &pre)
}

func TestSaveImageAndGetContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, err := s.SaveImage(ctx, ImageSource{Image: testImage(640, 480)}, "persona-1",
		map[string]any{"prompt": "test"})
	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeImage, item.Type)
	assert.FileExists(t, item.FilePath)
	assert.FileExists(t, item.ThumbnailPath)

	got, err := s.GetContent(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, "persona-1", got.PersonaID)
	assert.Equal(t, "test", got.Metadata["prompt"])
}

func TestSaveImageThumbnailBounded(t *testing.T) {
	s := newTestStore(t)

	item, err := s.SaveImage(context.Background(), ImageSource{Image: testImage(800, 400)}, "", nil)
	require.NoError(t, err)

	f, err := os.Open(item.ThumbnailPath)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, 200)
	assert.LessOrEqual(t, cfg.Height, 200)
}

func TestSaveImageRejectsAmbiguousSource(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveImage(context.Background(), ImageSource{}, "", nil)
	var invalid *models.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}

func TestListContentFilterAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SaveImage(ctx, ImageSource{Image: testImage(64, 64)}, "p1", nil)
	require.NoError(t, err)
	second, err := s.SaveImage(ctx, ImageSource{Image: testImage(64, 64)}, "p2", nil)
	require.NoError(t, err)

	all, err := s.ListContent(ctx, ContentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].CreatedAt.Before(all[1].CreatedAt), "newest first")

	p1Only, err := s.ListContent(ctx, ContentFilter{PersonaID: "p1"})
	require.NoError(t, err)
	require.Len(t, p1Only, 1)
	assert.Equal(t, first.ID, p1Only[0].ID)

	videos, err := s.ListContent(ctx, ContentFilter{Type: models.ContentTypeVideo})
	require.NoError(t, err)
	assert.Empty(t, videos)

	_, err = s.ListContent(ctx, ContentFilter{Type: "bogus"})
	var invalid *models.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)

	_ = second
}

func TestDeleteContentIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, err := s.SaveImage(ctx, ImageSource{Image: testImage(64, 64)}, "", nil)
	require.NoError(t, err)

	removed, err := s.DeleteContent(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoDirExists(t, filepath.Dir(item.FilePath))

	removed, err = s.DeleteContent(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestListPersonasSkipsCorruptRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreatePersona(ctx, "Good", nil, "", nil)
	require.NoError(t, err)

	// A record with an unparsable sidecar is skipped, not fatal.
	badDir := filepath.Join(s.personasDir(), "broken")
	require.NoError(t, os.MkdirAll(badDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, personaSidecar), []byte("{not json"), 0o644))

	personas, err := s.ListPersonas(ctx)
	require.NoError(t, err)
	require.Len(t, personas, 1)
	assert.Equal(t, "Good", personas[0].Name)
}
