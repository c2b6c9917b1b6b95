package motion

import (
	"context"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/icg/internal/config"
	"github.com/your-org/icg/internal/models"
)

func TestWindowStartsAndEndsFullFrame(t *testing.T) {
	p, ok := ProfileByName("medium")
	require.True(t, ok)

	full := image.Rect(0, 0, 512, 512)
	assert.Equal(t, full, p.Window(0, 512, 512))
	assert.Equal(t, full, p.Window(1, 512, 512))
}

func TestWindowMidpointZoomsIn(t *testing.T) {
	p, _ := ProfileByName("medium")

	win := p.Window(0.5, 512, 512)
	assert.Less(t, win.Dx(), 512, "half way through the clip is fully pushed in")
	assert.Less(t, win.Dy(), 512)

	// 512 / 1.1, the peak of the half sine
	assert.InDelta(t, 465, win.Dx(), 2)
}

func TestWindowStaysInsideImage(t *testing.T) {
	for _, name := range ProfileNames() {
		p, ok := ProfileByName(name)
		require.True(t, ok)
		for i := 0; i <= 100; i++ {
			win := p.Window(float64(i)/100, 640, 360)
			assert.GreaterOrEqual(t, win.Min.X, 0, "profile %s frame %d", name, i)
			assert.GreaterOrEqual(t, win.Min.Y, 0, "profile %s frame %d", name, i)
			assert.LessOrEqual(t, win.Max.X, 640, "profile %s frame %d", name, i)
			assert.LessOrEqual(t, win.Max.Y, 360, "profile %s frame %d", name, i)
		}
	}
}

func TestWindowDeterministic(t *testing.T) {
	p, _ := ProfileByName("strong")
	a := p.Window(0.37, 1024, 768)
	b := p.Window(0.37, 1024, 768)
	assert.Equal(t, a, b)
}

func TestProfileByNameUnknown(t *testing.T) {
	_, ok := ProfileByName("wild")
	assert.False(t, ok)
}

func TestAnimateRejectsUnknownProfile(t *testing.T) {
	s := NewSynthesizer(config.VideoConfig{FPS: 30, DefaultDuration: 5, CRF: 18},
		slog.New(slog.NewTextHandler(os.Stderr, nil)))

	err := s.Animate(context.Background(), "missing.jpg", "wild", 5,
		filepath.Join(t.TempDir(), "out.mp4"))
	var invalid *models.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "motion_profile", invalid.Field)
}
