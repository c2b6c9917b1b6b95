package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/your-org/icg/internal/media"
	"github.com/your-org/icg/internal/models"
)

// writeImageFiles materializes an image record's files under dir and
// returns the media and thumbnail paths. Used by every Store driver.
func writeImageFiles(dir string, src ImageSource, thumbnailSize int) (filePath, thumbPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create content dir: %w", err)
	}

	img := src.Image
	if src.Path != "" {
		ext := filepath.Ext(src.Path)
		if ext == "" {
			ext = ".jpg"
		}
		filePath = filepath.Join(dir, "image"+ext)
		if err := copyFile(src.Path, filePath); err != nil {
			return "", "", fmt.Errorf("copy image: %w", err)
		}
		img, err = imaging.Open(src.Path)
		if err != nil {
			return "", "", fmt.Errorf("decode image %s: %w", src.Path, err)
		}
	} else {
		filePath = filepath.Join(dir, "image.jpg")
		if err := saveJPEG(filePath, src.Image, 95); err != nil {
			return "", "", err
		}
	}

	thumbPath = filepath.Join(dir, thumbnailFile)
	if err := saveJPEG(thumbPath, media.Thumbnail(img, thumbnailSize), 85); err != nil {
		return "", "", err
	}
	return filePath, thumbPath, nil
}

// writeVideoFiles copies the video into dir and extracts a thumbnail.
func writeVideoFiles(ctx context.Context, dir, videoPath string, thumbnailSize int, logger *slog.Logger) (filePath, thumbPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create content dir: %w", err)
	}

	filePath = filepath.Join(dir, filepath.Base(videoPath))
	if err := copyFile(videoPath, filePath); err != nil {
		return "", "", fmt.Errorf("copy video: %w", err)
	}

	thumbPath = filepath.Join(dir, thumbnailFile)
	if err := makeVideoThumbnail(ctx, filePath, thumbPath, thumbnailSize, logger); err != nil {
		return "", "", err
	}
	return filePath, thumbPath, nil
}

// makeVideoThumbnail grabs the first frame; some encoders produce an
// undecodable leading frame, so a later frame is tried before giving up.
func makeVideoThumbnail(ctx context.Context, videoPath, thumbPath string, thumbnailSize int, logger *slog.Logger) error {
	frame, err := media.ExtractFrame(ctx, videoPath, 0)
	if err != nil {
		logger.Warn("first frame unreadable, retrying later frame",
			"video", videoPath, "retry_frame", videoThumbRetryFrame, "error", err)
		frame, err = media.ExtractFrame(ctx, videoPath, videoThumbRetryFrame)
	}
	if err != nil {
		return &models.ThumbnailExtractionError{Path: videoPath, Err: err}
	}
	return saveJPEG(thumbPath, media.Thumbnail(frame, thumbnailSize), 85)
}
