package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "filesystem", cfg.Storage.Driver)
	assert.Equal(t, "data", cfg.Storage.Root)
	assert.Equal(t, 200, cfg.Storage.ThumbnailSize)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 512, cfg.Synthesis.DefaultWidth)
	assert.Equal(t, 30, cfg.Synthesis.DefaultSteps)
	assert.Equal(t, 7.5, cfg.Synthesis.DefaultGuidance)
	assert.Equal(t, 30, cfg.Video.FPS)
	assert.Equal(t, 5, cfg.Video.DefaultDuration)
	assert.Equal(t, 18, cfg.Video.CRF)
	assert.Equal(t, 7.0, cfg.Quality.MinScore)
	assert.Equal(t, 10, cfg.Quality.SampleFrames)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadReadsValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9090
  api_key: secret
storage:
  driver: postgres
  root: /var/lib/icg
database:
  host: db.internal
  name: icg
  user: icg
  password: pw
video:
  fps: 24
  crf: 23
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/icg", cfg.Storage.Root)
	assert.Equal(t, 24, cfg.Video.FPS)
	assert.Equal(t, 23, cfg.Video.CRF)
	assert.Equal(t, "postgres://icg:pw@db.internal:5432/icg?sslmode=disable", cfg.Database.DSN())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ICG_SERVER_PORT", "7070")
	t.Setenv("ICG_STORAGE_ROOT", "/tmp/override")
	t.Setenv("ICG_NATS_URL", "nats://queue:4222")
	t.Setenv("ICG_VIDEO_WORKER_COUNT", "8")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "env wins over file")
	assert.Equal(t, "/tmp/override", cfg.Storage.Root)
	assert.Equal(t, "nats://queue:4222", cfg.NATS.URL)
	assert.Equal(t, 8, cfg.Video.WorkerCount)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [not a map"))
	require.Error(t, err)
}
