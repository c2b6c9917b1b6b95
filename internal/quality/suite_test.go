package quality

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/icg/internal/identity"
	"github.com/your-org/icg/internal/storage"
)

func newTestSuite(t *testing.T) (*Suite, storage.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := storage.NewFilesystemStore(t.TempDir(), 200, identity.NewRandomExtractor(), logger)
	require.NoError(t, err)
	return NewSuite(store, newTestValidator(), t.TempDir(), logger), store
}

func TestSuiteEmptyCatalogPasses(t *testing.T) {
	s, _ := newTestSuite(t)

	report, path, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OverallResult, "no checkable items means nothing failed")
	assert.Len(t, report.Modules, 3)
	assert.Contains(t, report.Modules, "image_quality")
	assert.Contains(t, report.Modules, "video_quality")
	assert.Contains(t, report.Modules, "persona_consistency")
	assert.FileExists(t, path)
	assert.Contains(t, filepath.Base(path), "validation_report_")
}

func TestSuiteScoresStoredImages(t *testing.T) {
	s, store := newTestSuite(t)
	ctx := context.Background()

	good, err := store.SaveImage(ctx, storage.ImageSource{Image: noisyImage(128, 7)}, "", nil)
	require.NoError(t, err)

	report, _, err := s.Run(ctx)
	require.NoError(t, err)

	mod := report.Modules["image_quality"]
	require.Len(t, mod.TestCases, 1)
	assert.Equal(t, good.ID, mod.TestCases[0].Name)
	assert.True(t, mod.Passed)
	assert.True(t, report.OverallResult)
}

func TestSuiteFailingImageFailsOverall(t *testing.T) {
	s, store := newTestSuite(t)
	ctx := context.Background()

	_, err := store.SaveImage(ctx, storage.ImageSource{Image: flatImage(128, 128)}, "", nil)
	require.NoError(t, err)

	report, _, err := s.Run(ctx)
	require.NoError(t, err)
	assert.False(t, report.Modules["image_quality"].Passed)
	assert.False(t, report.OverallResult)
}

func TestSuiteReportFileShape(t *testing.T) {
	s, _ := newTestSuite(t)

	_, path, err := s.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "timestamp")
	assert.Contains(t, doc, "modules")
	assert.Contains(t, doc, "overall_result")
	assert.Contains(t, doc, "duration_seconds")
}
