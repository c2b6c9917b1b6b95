package quality

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// storedReport is the on-disk form of a validation run.
type storedReport struct {
	ID        string `json:"id"`
	ContentID string `json:"content_id"`
	CreatedAt string `json:"created_at"`
	Report    Report `json:"report"`
}

// SaveReport persists a validation report under dir and returns its path.
// Reports are append-only; nothing ever rewrites one.
func SaveReport(dir, contentID string, report Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	doc := storedReport{
		ID:        uuid.New().String(),
		ContentID: contentID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Report:    report,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(dir, doc.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
