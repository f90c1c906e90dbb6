package raster

import "image"

// FrameBuffer is a premultiplied RGBA render target, cleared to transparent.
// There is no depth buffer: later draws composite over earlier ones.
type FrameBuffer struct {
	Width  int
	Height int
	img    *image.RGBA
}

// NewFrameBuffer allocates a transparent buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	return &FrameBuffer{
		Width:  w,
		Height: h,
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

// RGBA exposes the backing image for vector drawing.
func (fb *FrameBuffer) RGBA() *image.RGBA {
	return fb.img
}

// blendOver composites a premultiplied source pixel (components in [0, 255])
// over the pixel at x, y.
func (fb *FrameBuffer) blendOver(x, y int, r, g, b, a float64) {
	i := y*fb.img.Stride + x*4
	pix := fb.img.Pix
	inv := 1 - a/255
	pix[i] = clamp255(r + float64(pix[i])*inv)
	pix[i+1] = clamp255(g + float64(pix[i+1])*inv)
	pix[i+2] = clamp255(b + float64(pix[i+2])*inv)
	pix[i+3] = clamp255(a + float64(pix[i+3])*inv)
}

// NRGBA returns an un-premultiplied copy of the buffer.
func (fb *FrameBuffer) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(fb.img.Rect)
	src := fb.img.Pix
	for i := 0; i < len(src); i += 4 {
		a := src[i+3]
		if a == 0 {
			continue
		}
		inv := 255.0 / float64(a)
		out.Pix[i] = clamp255(float64(src[i]) * inv)
		out.Pix[i+1] = clamp255(float64(src[i+1]) * inv)
		out.Pix[i+2] = clamp255(float64(src[i+2]) * inv)
		out.Pix[i+3] = a
	}
	return out
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
