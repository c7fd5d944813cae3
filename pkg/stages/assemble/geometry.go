package assemble

import (
	"math"

	"github.com/user/timelapse/pkg/pipeline"
)

// Placement is where a segment's frames land on the canvas.
type Placement struct {
	Scale  float64
	Width  int
	Height int
	PadX   int
	PadY   int
}

// Fit scales src to fit inside canvas preserving aspect ratio and centers it.
// Smaller sources are scaled up unless noUpscale is set. Integer division
// of the padding may leave one extra pixel on the right or bottom.
func Fit(src, canvas pipeline.Resolution, noUpscale bool) Placement {
	scale := math.Min(
		float64(canvas.Width)/float64(src.Width),
		float64(canvas.Height)/float64(src.Height),
	)
	if noUpscale && scale > 1 {
		scale = 1
	}

	w := int(math.Round(float64(src.Width) * scale))
	h := int(math.Round(float64(src.Height) * scale))
	w = min(max(w, 1), canvas.Width)
	h = min(max(h, 1), canvas.Height)

	return Placement{
		Scale:  scale,
		Width:  w,
		Height: h,
		PadX:   (canvas.Width - w) / 2,
		PadY:   (canvas.Height - h) / 2,
	}
}

// Resized reports whether frames need resampling.
func (p Placement) Resized(src pipeline.Resolution) bool {
	return p.Width != src.Width || p.Height != src.Height
}
