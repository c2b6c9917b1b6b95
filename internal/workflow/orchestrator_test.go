package workflow

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/icg/internal/config"
	"github.com/your-org/icg/internal/identity"
	"github.com/your-org/icg/internal/models"
	"github.com/your-org/icg/internal/motion"
	"github.com/your-org/icg/internal/storage"
	"github.com/your-org/icg/internal/synth"
)

// fakeGenerator returns a synthetic gradient image, or fails after a set
// number of calls.
type fakeGenerator struct {
	mu        sync.Mutex
	calls     int
	failAfter int // 0 means never fail
	requests  []synth.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req synth.Request) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, errors.New("backend unavailable")
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 100, 255})
		}
	}
	return img, nil
}

// recordingSink captures published events.
type recordingSink struct {
	mu     sync.Mutex
	events []models.WorkflowEvent
}

func (r *recordingSink) Publish(ctx context.Context, ev models.WorkflowEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// refImage returns encoded JPEG bytes for use as a persona reference.
func refImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 8), uint8(y * 8), 200, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newTestOrchestrator(t *testing.T, gen *fakeGenerator) (*Orchestrator, storage.Store, *recordingSink) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := storage.NewFilesystemStore(t.TempDir(), 200, identity.NewRandomExtractor(), logger)
	require.NoError(t, err)

	synthCfg := config.SynthesisConfig{DefaultWidth: 512, DefaultHeight: 512, DefaultSteps: 30, DefaultGuidance: 7.5}
	videoCfg := config.VideoConfig{FPS: 30, DefaultDuration: 5, CRF: 18}
	sink := &recordingSink{}
	o := NewOrchestrator(store, gen, motion.NewSynthesizer(videoCfg, logger), sink, synthCfg, videoCfg, logger)
	return o, store, sink
}

func TestCreatePersonaRendersPreviews(t *testing.T) {
	gen := &fakeGenerator{}
	o, store, sink := newTestOrchestrator(t, gen)
	ctx := context.Background()

	p, err := o.CreatePersona(ctx, "Ava", "friendly", map[string]any{"gender": "woman"}, refImage(t))
	require.NoError(t, err)
	assert.Len(t, p.PreviewImages, 3)
	assert.Equal(t, 3, gen.calls)

	// Each preview is a stored image tagged with its style.
	items, err := store.ListContent(ctx, storage.ContentFilter{PersonaID: p.ID})
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, true, item.Metadata["is_preview"])
		assert.NotEmpty(t, item.Metadata["prompt"])
	}

	assert.Equal(t, []string{"persona_created"}, sink.types())
}

func TestCreatePersonaExtractsIdentityFeatures(t *testing.T) {
	gen := &fakeGenerator{}
	o, _, _ := newTestOrchestrator(t, gen)

	p, err := o.CreatePersona(context.Background(), "Ava", "", nil, refImage(t))
	require.NoError(t, err)
	assert.NotEmpty(t, p.EmbeddingPath)
}

func TestCreatePersonaRequiresReferenceImage(t *testing.T) {
	gen := &fakeGenerator{}
	o, _, sink := newTestOrchestrator(t, gen)

	_, err := o.CreatePersona(context.Background(), "Ava", "", nil, nil)
	var precond *models.PreconditionError
	require.ErrorAs(t, err, &precond)
	assert.Equal(t, 0, gen.calls, "workflow stops before rendering previews")
	assert.Empty(t, sink.types())
}

func TestCreatePersonaAbortsOnGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{failAfter: 1}
	o, store, sink := newTestOrchestrator(t, gen)
	ctx := context.Background()

	_, err := o.CreatePersona(ctx, "Ava", "", nil, refImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unavailable")

	// The persona record and the preview saved before the failure stay.
	personas, err := store.ListPersonas(ctx)
	require.NoError(t, err)
	require.Len(t, personas, 1)

	items, err := store.ListContent(ctx, storage.ContentFilter{PersonaID: personas[0].ID})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	assert.Empty(t, sink.types(), "no completion event on failure")
}

func TestGenerateContentBatch(t *testing.T) {
	gen := &fakeGenerator{}
	o, _, sink := newTestOrchestrator(t, gen)
	ctx := context.Background()

	p, err := o.CreatePersona(ctx, "Ava", "", nil, refImage(t))
	require.NoError(t, err)

	items, err := o.GenerateContent(ctx, p.ID, "portrait", map[string]any{"style": "casual"}, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, "portrait", item.Metadata["content_type"])
		assert.Equal(t, "casual", item.Metadata["style"])
	}

	assert.Contains(t, sink.types(), "content_generated")
}

func TestGenerateContentUsesTypeDefaults(t *testing.T) {
	gen := &fakeGenerator{}
	o, _, _ := newTestOrchestrator(t, gen)
	ctx := context.Background()

	p, err := o.CreatePersona(ctx, "Ava", "", nil, refImage(t))
	require.NoError(t, err)
	gen.requests = nil

	_, err = o.GenerateContent(ctx, p.ID, "social_post", nil, 1)
	require.NoError(t, err)
	require.Len(t, gen.requests, 1)
	assert.Equal(t, 1024, gen.requests[0].Width)
	assert.Equal(t, 1024, gen.requests[0].Height)
}

func TestGenerateContentUnknownType(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, &fakeGenerator{})

	_, err := o.GenerateContent(context.Background(), "p1", "hologram", nil, 1)
	var invalid *models.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "content_type", invalid.Field)
}

func TestGenerateContentMissingPersona(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, &fakeGenerator{})

	_, err := o.GenerateContent(context.Background(), "ghost", "portrait", nil, 1)
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "persona", notFound.Kind)
}

func TestGenerateContentKeepsPartialBatch(t *testing.T) {
	gen := &fakeGenerator{}
	o, _, _ := newTestOrchestrator(t, gen)
	ctx := context.Background()

	p, err := o.CreatePersona(ctx, "Ava", "", nil, refImage(t))
	require.NoError(t, err)

	// 3 preview calls already made; fail on the second batch item.
	gen.failAfter = gen.calls + 1
	items, err := o.GenerateContent(ctx, p.ID, "portrait", nil, 3)
	require.Error(t, err)
	assert.Len(t, items, 1, "items saved before the failure are returned")
}

func TestCreateVideoMissingSource(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, &fakeGenerator{})

	_, err := o.CreateVideo(context.Background(), "ghost", "animate", nil)
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "content", notFound.Kind)
}

func TestCreateVideoUnknownType(t *testing.T) {
	gen := &fakeGenerator{}
	o, store, _ := newTestOrchestrator(t, gen)
	ctx := context.Background()

	img, err := gen.Generate(ctx, synth.Request{})
	require.NoError(t, err)
	item, err := store.SaveImage(ctx, storage.ImageSource{Image: img}, "", nil)
	require.NoError(t, err)

	_, err = o.CreateVideo(ctx, item.ID, "teleport", nil)
	var invalid *models.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "video_type", invalid.Field)
}

func TestCreateVideoFaceSwapRequiresTarget(t *testing.T) {
	gen := &fakeGenerator{}
	o, store, _ := newTestOrchestrator(t, gen)
	ctx := context.Background()

	img, err := gen.Generate(ctx, synth.Request{})
	require.NoError(t, err)
	item, err := store.SaveImage(ctx, storage.ImageSource{Image: img}, "", nil)
	require.NoError(t, err)

	_, err = o.CreateVideo(ctx, item.ID, "face_swap", nil)
	var invalid *models.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "target_video", invalid.Field)
}

func TestProcessRenderJobReportsFailure(t *testing.T) {
	o, _, sink := newTestOrchestrator(t, &fakeGenerator{})

	err := o.ProcessRenderJob(context.Background(), models.RenderJob{
		JobID:     "job-1",
		ImageID:   "ghost",
		VideoType: "animate",
	})
	require.Error(t, err)

	types := sink.types()
	require.Len(t, types, 1)
	assert.Equal(t, "render_failed", types[0])
	assert.Equal(t, "job-1", sink.events[0].JobID)
	assert.NotEmpty(t, sink.events[0].Error)
}

func TestExportWorkflow(t *testing.T) {
	gen := &fakeGenerator{}
	o, store, sink := newTestOrchestrator(t, gen)
	ctx := context.Background()

	img, err := gen.Generate(ctx, synth.Request{})
	require.NoError(t, err)
	item, err := store.SaveImage(ctx, storage.ImageSource{Image: img}, "", nil)
	require.NoError(t, err)

	path, err := o.Export(ctx, []string{item.ID}, models.ExportOriginal, "")
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, sink.types(), "export_completed")
}
