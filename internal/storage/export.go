package storage

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/your-org/icg/internal/models"
)

// contentFetcher is satisfied by every Store driver's GetContent.
type contentFetcher func(ctx context.Context, id string) (*models.ContentItem, error)

// exportArchive packages the named items into a ZIP under exportDir.
// A missing record, a record whose backing file is gone, or a failed
// re-encode skips that item; the archive is built from whatever
// survives. Shared by all Store drivers.
func exportArchive(ctx context.Context, exportDir string, fetch contentFetcher, contentIDs []string, format models.ExportFormat, platform string, logger *slog.Logger) (string, error) {
	switch format {
	case models.ExportOriginal, models.ExportWeb, models.ExportHighRes:
	case "":
		format = models.ExportOriginal
	default:
		return "", &models.InvalidArgumentError{Field: "format", Value: string(format)}
	}

	archivePath := filepath.Join(exportDir, uuid.New().String()+".zip")
	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("create export archive: %w", err)
	}
	zw := zip.NewWriter(f)

	exported := 0
	for _, id := range contentIDs {
		if ctx.Err() != nil {
			zw.Close()
			f.Close()
			os.Remove(archivePath)
			return "", ctx.Err()
		}

		c, err := fetch(ctx, id)
		if err != nil || c == nil {
			logger.Warn("skipping missing content in export", "content_id", id, "error", err)
			continue
		}
		if _, err := os.Stat(c.FilePath); err != nil {
			logger.Warn("skipping content with missing file", "content_id", id, "path", c.FilePath)
			continue
		}

		name, err := addContentToArchive(zw, c, format)
		if err != nil {
			logger.Warn("skipping unexportable content", "content_id", id, "error", err)
			continue
		}

		if err := addMetaToArchive(zw, name, c); err != nil {
			zw.Close()
			f.Close()
			os.Remove(archivePath)
			return "", err
		}
		exported++
	}

	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(archivePath)
		return "", fmt.Errorf("finalize export archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("close export archive: %w", err)
	}

	if exported == 0 {
		os.Remove(archivePath)
		return "", &models.NoContentExportedError{Requested: len(contentIDs)}
	}

	// Platform-specific optimization is a placeholder; the setting is
	// recorded for the log trail only.
	logger.Info("content exported", "archive", archivePath, "exported", exported,
		"requested", len(contentIDs), "format", string(format), "platform", platform)
	return archivePath, nil
}

// addContentToArchive writes the item's media file into the archive and
// returns the archive-internal file name.
func addContentToArchive(zw *zip.Writer, c *models.ContentItem, format models.ExportFormat) (string, error) {
	ext := filepath.Ext(c.FilePath)

	if c.Type == models.ContentTypeImage && format != models.ExportOriginal {
		// Re-encode at the format's quality setting.
		name := fmt.Sprintf("%s_%s.jpg", c.Type, c.ID)
		img, err := imaging.Open(c.FilePath)
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", c.FilePath, err)
		}
		w, err := zw.Create(name)
		if err != nil {
			return "", fmt.Errorf("archive entry %s: %w", name, err)
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: format.JPEGQuality()}); err != nil {
			return "", fmt.Errorf("encode %s: %w", name, err)
		}
		return name, nil
	}

	name := fmt.Sprintf("%s_%s%s", c.Type, c.ID, ext)
	w, err := zw.Create(name)
	if err != nil {
		return "", fmt.Errorf("archive entry %s: %w", name, err)
	}
	src, err := os.Open(c.FilePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", c.FilePath, err)
	}
	defer src.Close()
	if _, err := io.Copy(w, src); err != nil {
		return "", fmt.Errorf("copy %s: %w", c.FilePath, err)
	}
	return name, nil
}

// addMetaToArchive writes the item's metadata map, and only that map,
// as the sidecar entry beside the exported file.
func addMetaToArchive(zw *zip.Writer, fileName string, c *models.ContentItem) error {
	meta := c.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export metadata for %s: %w", c.ID, err)
	}
	w, err := zw.Create(fileName + ".json")
	if err != nil {
		return fmt.Errorf("archive entry %s.json: %w", fileName, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write export metadata for %s: %w", c.ID, err)
	}
	return nil
}
