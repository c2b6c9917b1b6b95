package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/your-org/icg/internal/models"
)

// EncodeOptions controls the H.264 encode of a frame sequence.
type EncodeOptions struct {
	FPS int
	CRF int
}

// EncodeFrames assembles the numbered JPEG frames under frameDir into an
// H.264 MP4 at outputPath. Frames must be named frame_0001.jpg,
// frame_0002.jpg and so on.
func EncodeFrames(ctx context.Context, frameDir, outputPath string, opts EncodeOptions) error {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.CRF <= 0 {
		opts.CRF = 18
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", filepath.Join(frameDir, "frame_%04d.jpg"),
		"-c:v", "libx264",
		"-crf", fmt.Sprintf("%d", opts.CRF),
		"-pix_fmt", "yuv420p",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &models.EncodingError{
			Output: stderr.String(),
			Err:    err,
		}
	}
	return nil
}
