package identity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embedding.bin")
	vec := []float32{0, 1.5, -2.25, 3.14159}

	require.NoError(t, WriteVector(path, vec))
	got, err := ReadVector(path)
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestReadVectorTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embedding.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	_, err := ReadVector(path)
	require.Error(t, err)
}

func TestRandomExtractorShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0o644))

	vec, err := NewRandomExtractor().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, vec, Dim)
}

func TestRandomExtractorMissingFile(t *testing.T) {
	_, err := NewRandomExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"))
	require.Error(t, err)
}
