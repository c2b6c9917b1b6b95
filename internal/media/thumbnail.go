package media

import (
	"image"

	"github.com/disintegration/imaging"
)

// Thumbnail scales img down so that its longest side does not exceed
// maxSide, preserving aspect ratio. Images already within bounds are
// returned unchanged.
func Thumbnail(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}
