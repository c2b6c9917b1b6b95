package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/icg/internal/config"
	"github.com/your-org/icg/internal/models"
	"github.com/your-org/icg/internal/motion"
	"github.com/your-org/icg/internal/observability"
	"github.com/your-org/icg/internal/storage"
	"github.com/your-org/icg/internal/synth"
)

// EventSink receives workflow progress events. The API wires this to the
// WebSocket hub and, when a queue is configured, to the events stream.
type EventSink interface {
	Publish(ctx context.Context, ev models.WorkflowEvent)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Publish(context.Context, models.WorkflowEvent) {}

// Orchestrator sequences the multi-step workflows: persona creation with
// previews, content generation, video rendering and export. Steps run in
// order; a step failure stops the workflow and leaves already-persisted
// artifacts in place.
type Orchestrator struct {
	store    storage.Store
	gen      synth.Generator
	motion   *motion.Synthesizer
	events   EventSink
	synthCfg config.SynthesisConfig
	videoCfg config.VideoConfig
	logger   *slog.Logger
}

func NewOrchestrator(store storage.Store, gen synth.Generator, m *motion.Synthesizer, events EventSink, synthCfg config.SynthesisConfig, videoCfg config.VideoConfig, logger *slog.Logger) *Orchestrator {
	if events == nil {
		events = NopSink{}
	}
	return &Orchestrator{
		store:    store,
		gen:      gen,
		motion:   m,
		events:   events,
		synthCfg: synthCfg,
		videoCfg: videoCfg,
		logger:   logger,
	}
}

// CreatePersona runs the full persona creation workflow: persist the
// record, extract identity features, then render one preview per style.
// Feature extraction is not optional here; a workflow persona without a
// reference image fails before any preview is rendered. Any synthesis
// failure aborts the workflow; previews saved before the failure are
// kept.
func (o *Orchestrator) CreatePersona(ctx context.Context, name, description string, attributes map[string]any, referenceImage []byte) (*models.Persona, error) {
	o.logger.Info("starting persona creation workflow", "name", name)

	p, err := o.store.CreatePersona(ctx, name, attributes, description, referenceImage)
	if err != nil {
		observability.WorkflowFailures.WithLabelValues("create_persona").Inc()
		return nil, err
	}

	p, err = o.store.ExtractIdentityFeatures(ctx, p.ID)
	if err != nil {
		observability.WorkflowFailures.WithLabelValues("create_persona").Inc()
		return nil, err
	}

	previewIDs := make([]string, 0, len(PreviewStyles))
	for _, style := range PreviewStyles {
		prompt := PreviewPrompt(style, p)
		img, err := o.gen.Generate(ctx, synth.Request{
			Prompt:   prompt,
			Width:    o.synthCfg.DefaultWidth,
			Height:   o.synthCfg.DefaultHeight,
			Steps:    o.synthCfg.DefaultSteps,
			Guidance: o.synthCfg.DefaultGuidance,
		})
		if err != nil {
			observability.WorkflowFailures.WithLabelValues("create_persona").Inc()
			return nil, fmt.Errorf("generate %q preview: %w", style, err)
		}

		item, err := o.store.SaveImage(ctx, storage.ImageSource{Image: img}, p.ID, map[string]any{
			"prompt":     prompt,
			"style":      style,
			"is_preview": true,
		})
		if err != nil {
			observability.WorkflowFailures.WithLabelValues("create_persona").Inc()
			return nil, err
		}
		observability.ImagesGenerated.WithLabelValues("preview").Inc()
		previewIDs = append(previewIDs, item.ID)
	}

	p, err = o.store.UpdatePersona(ctx, p.ID, models.PersonaUpdate{PreviewImages: previewIDs})
	if err != nil {
		observability.WorkflowFailures.WithLabelValues("create_persona").Inc()
		return nil, err
	}

	o.events.Publish(ctx, models.WorkflowEvent{
		Type:      "persona_created",
		PersonaID: p.ID,
		Timestamp: time.Now().UTC(),
	})
	o.logger.Info("completed persona creation workflow", "persona_id", p.ID, "previews", len(previewIDs))
	return p, nil
}

// contentDefaults maps content type to default canvas size.
var contentDefaults = map[string]struct{ width, height int }{
	"portrait":    {512, 512},
	"full_body":   {512, 768},
	"action":      {512, 512},
	"social_post": {1024, 1024},
}

// GenerateContent renders count items of the given type for a persona.
// Items persisted before a mid-batch failure are kept.
func (o *Orchestrator) GenerateContent(ctx context.Context, personaID, contentType string, settings map[string]any, count int) ([]*models.ContentItem, error) {
	if count <= 0 {
		count = 1
	}
	defaults, ok := contentDefaults[contentType]
	if !ok {
		return nil, &models.InvalidArgumentError{Field: "content_type", Value: contentType}
	}

	p, err := o.store.GetPersona(ctx, personaID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &models.NotFoundError{Kind: "persona", ID: personaID}
	}

	var prompt string
	meta := map[string]any{"content_type": contentType, "settings": settings}
	switch contentType {
	case "portrait":
		prompt = PortraitPrompt(p, settings)
		meta["style"] = stringSetting(settings, "style", "professional")
		meta["setting"] = stringSetting(settings, "setting", "studio")
	case "full_body":
		prompt = FullBodyPrompt(p, settings)
		meta["style"] = stringSetting(settings, "style", "professional")
		meta["setting"] = stringSetting(settings, "setting", "studio")
	case "action":
		prompt = ActionPrompt(p, settings)
		meta["action"] = stringSetting(settings, "action", "working")
		meta["setting"] = stringSetting(settings, "setting", "office")
	case "social_post":
		prompt = SocialPostPrompt(p, settings)
		meta["platform"] = stringSetting(settings, "platform", "instagram")
		meta["theme"] = stringSetting(settings, "theme", "professional")
	}
	meta["prompt"] = prompt

	o.logger.Info("starting content generation workflow",
		"persona_id", personaID, "content_type", contentType, "count", count)

	req := synth.Request{
		Prompt:   prompt,
		Width:    intSetting(settings, "width", defaults.width),
		Height:   intSetting(settings, "height", defaults.height),
		Steps:    intSetting(settings, "steps", o.synthCfg.DefaultSteps),
		Guidance: floatSetting(settings, "guidance", o.synthCfg.DefaultGuidance),
	}

	items := make([]*models.ContentItem, 0, count)
	for i := 0; i < count; i++ {
		img, err := o.gen.Generate(ctx, req)
		if err != nil {
			observability.WorkflowFailures.WithLabelValues("generate_content").Inc()
			return items, fmt.Errorf("generate %s %d/%d: %w", contentType, i+1, count, err)
		}
		item, err := o.store.SaveImage(ctx, storage.ImageSource{Image: img}, personaID, meta)
		if err != nil {
			observability.WorkflowFailures.WithLabelValues("generate_content").Inc()
			return items, err
		}
		observability.ImagesGenerated.WithLabelValues(contentType).Inc()
		items = append(items, item)
	}

	o.events.Publish(ctx, models.WorkflowEvent{
		Type:      "content_generated",
		PersonaID: personaID,
		Timestamp: time.Now().UTC(),
	})
	o.logger.Info("completed content generation workflow", "created", len(items))
	return items, nil
}

// CreateVideo turns a stored image into a video clip, either by
// animating it or by applying its face to a target video.
func (o *Orchestrator) CreateVideo(ctx context.Context, imageID, videoType string, settings map[string]any) (*models.ContentItem, error) {
	src, err := o.store.GetContent(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, &models.NotFoundError{Kind: "content", ID: imageID}
	}
	if src.Type != models.ContentTypeImage {
		return nil, &models.PreconditionError{
			Op:     "create video",
			ID:     imageID,
			Reason: "source content is not an image",
		}
	}

	outDir, err := os.MkdirTemp("", "render-out-")
	if err != nil {
		return nil, fmt.Errorf("create render dir: %w", err)
	}
	defer os.RemoveAll(outDir)
	outputPath := filepath.Join(outDir, uuid.New().String()+".mp4")

	meta := map[string]any{
		"source_image_id": imageID,
		"video_type":      videoType,
		"settings":        settings,
	}

	start := time.Now()
	switch videoType {
	case "animate":
		profile := stringSetting(settings, "motion_type", "subtle")
		duration := intSetting(settings, "duration", o.videoCfg.DefaultDuration)
		if err := o.motion.Animate(ctx, src.FilePath, profile, duration, outputPath); err != nil {
			observability.WorkflowFailures.WithLabelValues("create_video").Inc()
			return nil, err
		}
	case "face_swap":
		target := stringSetting(settings, "target_video", "")
		if target == "" {
			return nil, &models.InvalidArgumentError{Field: "target_video"}
		}
		meta["target_video"] = target
		if err := o.motion.FaceSwap(ctx, src.FilePath, target, outputPath); err != nil {
			observability.WorkflowFailures.WithLabelValues("create_video").Inc()
			return nil, err
		}
	default:
		return nil, &models.InvalidArgumentError{Field: "video_type", Value: videoType}
	}
	observability.RenderDuration.WithLabelValues(videoType).Observe(time.Since(start).Seconds())

	video, err := o.store.SaveVideo(ctx, outputPath, src.PersonaID, meta)
	if err != nil {
		observability.WorkflowFailures.WithLabelValues("create_video").Inc()
		return nil, err
	}
	observability.VideosRendered.WithLabelValues(videoType).Inc()

	o.events.Publish(ctx, models.WorkflowEvent{
		Type:      "video_created",
		PersonaID: video.PersonaID,
		ContentID: video.ID,
		Timestamp: time.Now().UTC(),
	})
	o.logger.Info("completed video creation workflow",
		"content_id", video.ID, "video_type", videoType, "took", time.Since(start))
	return video, nil
}

// ProcessRenderJob executes a queued render request and reports the
// outcome on the events sink.
func (o *Orchestrator) ProcessRenderJob(ctx context.Context, job models.RenderJob) error {
	video, err := o.CreateVideo(ctx, job.ImageID, job.VideoType, job.Settings)
	if err != nil {
		o.events.Publish(ctx, models.WorkflowEvent{
			Type:      "render_failed",
			JobID:     job.JobID,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return err
	}
	o.events.Publish(ctx, models.WorkflowEvent{
		Type:      "render_completed",
		JobID:     job.JobID,
		PersonaID: video.PersonaID,
		ContentID: video.ID,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// Export packages the named items into an archive and returns its path.
func (o *Orchestrator) Export(ctx context.Context, contentIDs []string, format models.ExportFormat, platform string) (string, error) {
	o.logger.Info("starting export workflow", "items", len(contentIDs), "format", string(format))

	path, err := o.store.ExportContent(ctx, contentIDs, format, platform)
	if err != nil {
		observability.WorkflowFailures.WithLabelValues("export").Inc()
		return "", err
	}
	observability.ContentExported.Inc()

	o.events.Publish(ctx, models.WorkflowEvent{
		Type:      "export_completed",
		Timestamp: time.Now().UTC(),
	})
	return path, nil
}
