package motion

import (
	"image"
	"math"
)

// Profile holds the amplitude pair driving the camera path: Zoom scales
// the slow push-in, Pan scales the circular drift of the crop center.
type Profile struct {
	Name string
	Zoom float64
	Pan  float64
}

var profiles = map[string]Profile{
	"subtle": {Name: "subtle", Zoom: 0.05, Pan: 0.02},
	"medium": {Name: "medium", Zoom: 0.10, Pan: 0.05},
	"strong": {Name: "strong", Zoom: 0.15, Pan: 0.10},
}

// ProfileByName looks up a motion profile. The zero Profile and false
// are returned for unknown names.
func ProfileByName(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// ProfileNames lists the known profiles for error messages and docs.
func ProfileNames() []string {
	return []string{"subtle", "medium", "strong"}
}

// Window computes the source crop for one frame. progress runs from 0 to
// 1 over the clip; the zoom follows a half sine so the clip starts and
// ends at scale 1, while the pan traces one full circle around the
// image center. The window is clamped to stay inside the image.
func (p Profile) Window(progress float64, width, height int) image.Rectangle {
	w := float64(width)
	h := float64(height)

	zoom := 1 + p.Zoom*math.Sin(progress*math.Pi)
	panX := w * p.Pan * math.Sin(2*math.Pi*progress)
	panY := h * p.Pan * math.Cos(2*math.Pi*progress)

	cropW := w / zoom
	cropH := h / zoom

	x0 := clamp(w/2+panX-cropW/2, 0, w-cropW)
	y0 := clamp(h/2+panY-cropH/2, 0, h-cropH)

	return image.Rect(
		int(math.Round(x0)),
		int(math.Round(y0)),
		int(math.Round(x0+cropW)),
		int(math.Round(y0+cropH)),
	)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
