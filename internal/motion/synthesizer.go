package motion

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/your-org/icg/internal/config"
	"github.com/your-org/icg/internal/media"
	"github.com/your-org/icg/internal/models"
)

// Synthesizer renders motion clips from still images by sweeping a
// cropping window across the source and encoding the frames with x264.
// Rendering is deterministic: the same input and profile always produce
// the same frame sequence.
type Synthesizer struct {
	fps             int
	defaultDuration int
	crf             int
	workers         int
	logger          *slog.Logger
}

func NewSynthesizer(cfg config.VideoConfig, logger *slog.Logger) *Synthesizer {
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	return &Synthesizer{
		fps:             cfg.FPS,
		defaultDuration: cfg.DefaultDuration,
		crf:             cfg.CRF,
		workers:         workers,
		logger:          logger,
	}
}

// Animate renders a clip of durationSec seconds from the still image at
// imagePath using the named motion profile. durationSec <= 0 selects
// the configured default.
func (s *Synthesizer) Animate(ctx context.Context, imagePath, profileName string, durationSec int, outputPath string) error {
	profile, ok := ProfileByName(profileName)
	if !ok {
		return &models.InvalidArgumentError{
			Field: "motion_profile",
			Value: fmt.Sprintf("%s (want one of %s)", profileName, strings.Join(ProfileNames(), ", ")),
		}
	}
	if durationSec <= 0 {
		durationSec = s.defaultDuration
	}

	src, err := imaging.Open(imagePath)
	if err != nil {
		return fmt.Errorf("open source image %s: %w", imagePath, err)
	}

	frameDir, err := os.MkdirTemp("", "motion-frames-")
	if err != nil {
		return fmt.Errorf("create frame dir: %w", err)
	}
	defer os.RemoveAll(frameDir)

	total := s.fps * durationSec
	if err := s.renderFrames(ctx, src, profile, total, frameDir); err != nil {
		return err
	}

	s.logger.Info("encoding motion clip", "profile", profile.Name,
		"frames", total, "fps", s.fps, "output", outputPath)
	return media.EncodeFrames(ctx, frameDir, outputPath, media.EncodeOptions{FPS: s.fps, CRF: s.crf})
}

// renderFrames writes the numbered frame files, fanning the work out
// over the configured worker count.
func (s *Synthesizer) renderFrames(ctx context.Context, src image.Image, profile Profile, total int, frameDir string) error {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()

	indexes := make(chan int)
	errs := make(chan error, s.workers)
	var wg sync.WaitGroup

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				progress := float64(i) / float64(total)
				window := profile.Window(progress, width, height)
				frame := imaging.Resize(imaging.Crop(src, window), width, height, imaging.Lanczos)

				name := filepath.Join(frameDir, fmt.Sprintf("frame_%04d.jpg", i+1))
				if err := imaging.Save(frame, name, imaging.JPEGQuality(95)); err != nil {
					errs <- fmt.Errorf("write frame %d: %w", i, err)
					return
				}
			}
		}()
	}

feed:
	for i := 0; i < total; i++ {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		case err := <-errs:
			close(indexes)
			wg.Wait()
			return err
		}
	}
	close(indexes)
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
