package raster

import (
	"image/color"
	"math"

	"mesh-thumbnailer/internal/mathutil"
)

// FillTriangle paints a screen-space triangle in a flat color, composited
// over the buffer. Pixels are sampled at their centers; winding is ignored.
//
// Zero allocations in the pixel loop.
func FillTriangle(fb *FrameBuffer, p [3]mathutil.Vec3, c color.NRGBA, opacity float64) {
	x0, y0 := p[0][0], p[0][1]
	x1, y1 := p[1][0], p[1][1]
	x2, y2 := p[2][0], p[2][1]

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))
	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Premultiplied source
	a := float64(c.A) * opacity
	if a <= 0 {
		return
	}
	sr := float64(c.R) * a / 255
	sg := float64(c.G) * a / 255
	sb := float64(c.B) * a / 255

	// Precompute edge deltas
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}
			fb.blendOver(sx, sy, sr, sg, sb, a)
		}
	}
}
