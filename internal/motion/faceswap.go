package motion

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/your-org/icg/internal/media"
)

const (
	faceOverlaySize  = 100
	faceOverlayInset = 10
)

// FaceSwap re-renders the target video with the persona's face applied
// to every frame.
//
// The current compositor is a stand-in: it stamps a scaled copy of the
// persona image into the bottom-right corner of each frame instead of
// performing a real swap. It keeps the full decode, per-frame transform
// and re-encode path honest so a real swap model can drop in later.
func (s *Synthesizer) FaceSwap(ctx context.Context, personaImagePath, targetVideoPath, outputPath string) error {
	face, err := imaging.Open(personaImagePath)
	if err != nil {
		return fmt.Errorf("open persona image %s: %w", personaImagePath, err)
	}
	stamp := imaging.Resize(face, faceOverlaySize, faceOverlaySize, imaging.Lanczos)

	frameDir, err := os.MkdirTemp("", "faceswap-frames-")
	if err != nil {
		return fmt.Errorf("create frame dir: %w", err)
	}
	defer os.RemoveAll(frameDir)

	frames := 0
	err = media.ReadFrames(ctx, targetVideoPath, func(index int, frame image.Image) error {
		b := frame.Bounds()
		pos := image.Pt(
			b.Dx()-faceOverlaySize-faceOverlayInset,
			b.Dy()-faceOverlaySize-faceOverlayInset,
		)
		composite := imaging.Overlay(frame, stamp, pos, 1.0)

		name := filepath.Join(frameDir, fmt.Sprintf("frame_%04d.jpg", index+1))
		if err := imaging.Save(composite, name, imaging.JPEGQuality(95)); err != nil {
			return fmt.Errorf("write frame %d: %w", index, err)
		}
		frames++
		return nil
	})
	if err != nil {
		return fmt.Errorf("decode target video %s: %w", targetVideoPath, err)
	}
	if frames == 0 {
		return fmt.Errorf("target video %s has no decodable frames", targetVideoPath)
	}

	fps := s.fps
	if info, err := media.Probe(ctx, targetVideoPath); err == nil && info.FPS > 0 {
		fps = int(info.FPS + 0.5)
	}

	s.logger.Info("encoding face swap clip", "frames", frames, "fps", fps, "output", outputPath)
	return media.EncodeFrames(ctx, frameDir, outputPath, media.EncodeOptions{FPS: fps, CRF: s.crf})
}
