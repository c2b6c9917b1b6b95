package media

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFrameRate(t *testing.T) {
	assert.InDelta(t, 30, parseFrameRate("30"), 1e-9)
	assert.InDelta(t, 29.97, parseFrameRate("30000/1001"), 0.001)
	assert.InDelta(t, 25, parseFrameRate("25/1"), 1e-9)
	assert.Equal(t, 0.0, parseFrameRate("bad"))
	assert.Equal(t, 0.0, parseFrameRate("30/0"))
}

func TestThumbnailKeepsSmallImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	out := Thumbnail(img, 200)
	assert.Equal(t, img.Bounds(), out.Bounds(), "already within bounds")
}

func TestThumbnailShrinksLongestSide(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 400))
	out := Thumbnail(img, 200)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 100, out.Bounds().Dy(), "aspect ratio preserved")

	tall := image.NewRGBA(image.Rect(0, 0, 300, 600))
	out = Thumbnail(tall, 200)
	assert.Equal(t, 200, out.Bounds().Dy())
	assert.Equal(t, 100, out.Bounds().Dx())
}
