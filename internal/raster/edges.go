package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"mesh-thumbnailer/internal/mathutil"
)

// Stroker draws anti-aliased triangle outlines. The rasterizer is reused
// across triangles and sized to each outline's bounding box.
type Stroker struct {
	z *vector.Rasterizer
}

func NewStroker() *Stroker {
	return &Stroker{z: vector.NewRasterizer(0, 0)}
}

// StrokeTriangle outlines the three edges of a screen-space triangle with a
// line of the given width in pixels, composited over the buffer.
func (s *Stroker) StrokeTriangle(fb *FrameBuffer, p [3]mathutil.Vec3, c color.NRGBA, opacity, width float64) {
	if width <= 0 || opacity <= 0 {
		return
	}
	h := width / 2

	minX := math.Min(math.Min(p[0][0], p[1][0]), p[2][0]) - h - 1
	maxX := math.Max(math.Max(p[0][0], p[1][0]), p[2][0]) + h + 1
	minY := math.Min(math.Min(p[0][1], p[1][1]), p[2][1]) - h - 1
	maxY := math.Max(math.Max(p[0][1], p[1][1]), p[2][1]) + h + 1

	r := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	r = r.Intersect(image.Rect(0, 0, fb.Width, fb.Height))
	if r.Empty() {
		return
	}

	s.z.Reset(r.Dx(), r.Dy())
	s.z.DrawOp = draw.Over
	for i := 0; i < 3; i++ {
		s.segment(p[i], p[(i+1)%3], h, r)
	}

	src := image.NewUniform(color.NRGBA{R: c.R, G: c.G, B: c.B, A: clamp255(float64(c.A) * opacity)})
	s.z.Draw(fb.RGBA(), r, src, image.Point{})
}

// segment adds the rectangle covering a to b at half-width h as a closed
// path. All rectangles share one orientation so overlaps never cancel.
func (s *Stroker) segment(a, b mathutil.Vec3, h float64, r image.Rectangle) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	nx, ny := 0.0, h
	if l < 1e-9 {
		// zero-length edge: square dot
		a[0] -= h
		b[0] += h
	} else {
		nx, ny = -dy/l*h, dx/l*h
	}

	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	w, ht := float64(r.Dx()), float64(r.Dy())
	pt := func(x, y float64) (float32, float32) {
		return float32(clampF(x-ox, 0, w)), float32(clampF(y-oy, 0, ht))
	}

	s.z.MoveTo(pt(a[0]+nx, a[1]+ny))
	s.z.LineTo(pt(b[0]+nx, b[1]+ny))
	s.z.LineTo(pt(b[0]-nx, b[1]-ny))
	s.z.LineTo(pt(a[0]-nx, a[1]-ny))
	s.z.ClosePath()
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
