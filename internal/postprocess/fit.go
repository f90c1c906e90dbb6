package postprocess

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// Fit selects how the rendered canvas becomes the output image.
type Fit string

const (
	// FitCrop trims to the bounding box of visible pixels.
	FitCrop Fit = "crop"
	// FitPad trims, then re-centers the content on an exact size×size canvas.
	FitPad Fit = "pad"
)

// DefaultFillRatio is the share of the canvas the content spans under FitPad.
const DefaultFillRatio = 0.9

// ParseFit accepts "crop" or "pad", case-insensitively. Empty means crop.
func ParseFit(s string) (Fit, error) {
	switch Fit(strings.ToLower(strings.TrimSpace(s))) {
	case "", FitCrop:
		return FitCrop, nil
	case FitPad:
		return FitPad, nil
	}
	return "", fmt.Errorf("postprocess: unknown fit %q (want crop or pad)", s)
}

// Apply finishes a size×size render according to fit.
func Apply(img *image.NRGBA, fit Fit, size int, fillRatio float64) *image.NRGBA {
	if fit == FitPad {
		return CropAndCenter(img, size, fillRatio)
	}
	return CropAlpha(img)
}

// CropAndCenter crops to the bounding box of non-transparent pixels, then
// scales and centers on a size×size canvas.
func CropAndCenter(img *image.NRGBA, size int, fillRatio float64) *image.NRGBA {
	return scaleAndCenter(CropAlpha(img), size, fillRatio)
}

// CropAlpha returns the smallest sub-image holding every pixel with alpha > 0,
// rebased at the origin. A fully transparent image is returned unchanged.
func CropAlpha(img *image.NRGBA) *image.NRGBA {
	r, ok := AlphaBounds(img)
	if !ok {
		return img
	}

	cropW, cropH := r.Dx(), r.Dy()
	cropped := image.NewNRGBA(image.Rect(0, 0, cropW, cropH))
	for y := 0; y < cropH; y++ {
		srcOff := img.PixOffset(r.Min.X, r.Min.Y+y)
		dstOff := y * cropped.Stride
		copy(cropped.Pix[dstOff:dstOff+cropW*4], img.Pix[srcOff:srcOff+cropW*4])
	}
	return cropped
}

// AlphaBounds returns the bounding box of pixels with alpha > 0. ok is false
// when there are none.
func AlphaBounds(img *image.NRGBA) (r image.Rectangle, ok bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x, off = x+1, off+4 {
			if img.Pix[off+3] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

func scaleAndCenter(img *image.NRGBA, canvasSize int, fillRatio float64) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, canvasSize, canvasSize))
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 {
		return canvas
	}
	if fillRatio <= 0 || fillRatio > 1 {
		fillRatio = DefaultFillRatio
	}

	// Scale to fit within fillRatio of canvas
	maxDim := float64(canvasSize) * fillRatio
	scaleF := maxDim / math.Max(float64(srcW), float64(srcH))
	newW := max(1, min(canvasSize, int(float64(srcW)*scaleF+0.5)))
	newH := max(1, min(canvasSize, int(float64(srcH)*scaleF+0.5)))

	scaled := Resize(img, newW, newH)

	// Center on canvas
	offX := (canvasSize - newW) / 2
	offY := (canvasSize - newH) / 2
	for y := 0; y < newH; y++ {
		srcOff := y * scaled.Stride
		dstOff := (offY+y)*canvas.Stride + offX*4
		copy(canvas.Pix[dstOff:dstOff+newW*4], scaled.Pix[srcOff:srcOff+newW*4])
	}
	return canvas
}
