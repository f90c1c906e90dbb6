package raster

import (
	"image"
	"image/color"
	"math"

	"mesh-thumbnailer/internal/mathutil"
	"mesh-thumbnailer/internal/mesh"
	"mesh-thumbnailer/internal/postprocess"
	"mesh-thumbnailer/internal/viewmatrix"
)

// Options controls the look and size of a thumbnail.
type Options struct {
	Size        int // output bound in pixels
	Supersample int // render scale before downsampling

	FaceColor color.NRGBA
	EdgeColor color.NRGBA
	Opacity   float64
	EdgeWidth float64 // pixels at output resolution; 0 disables edges

	Shade bool
	Light LightConfig

	Fit       postprocess.Fit
	FillRatio float64
}

// DefaultOptions returns the standard teal look at the given size.
func DefaultOptions(size int) Options {
	return Options{
		Size:        size,
		Supersample: 2,
		FaceColor:   MustParseHexColor(DefaultFaceColor),
		EdgeColor:   MustParseHexColor(DefaultEdgeColor),
		Opacity:     0.9,
		EdgeWidth:   0.5,
		Light:       DefaultLightConfig(),
		Fit:         postprocess.FitCrop,
		FillRatio:   postprocess.DefaultFillRatio,
	}
}

// Render draws a normalized mesh with a fixed orthographic camera on a
// transparent background and returns an image no larger than Size×Size
// (exactly Size×Size with FitPad).
//
// Triangles are painted in mesh order, each filled then outlined, with no
// depth sorting: later triangles cover earlier ones.
func Render(n *mesh.Normalized, opts Options) *image.NRGBA {
	if opts.Size < 1 {
		opts.Size = 1
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	renderSize := opts.Size * opts.Supersample

	R := viewmatrix.View()
	edgeWidth := opts.EdgeWidth * float64(opts.Supersample)
	frame := viewmatrix.FitCube(R, renderSize, math.Ceil(edgeWidth/2)+1)

	fb := NewFrameBuffer(renderSize, renderSize)
	stroker := NewStroker()

	for _, tri := range n.Triangles() {
		screen := frame.ProjectTriangle(R, tri)

		face := opts.FaceColor
		if opts.Shade {
			var view [3]mathutil.Vec3
			for i, v := range tri {
				view[i] = R.MulVec3(v)
			}
			face = opts.Light.ShadeColor(face, faceNormal(view))
		}

		FillTriangle(fb, screen, face, opts.Opacity)
		stroker.StrokeTriangle(fb, screen, opts.EdgeColor, opts.Opacity, edgeWidth)
	}

	img := postprocess.Downsample(fb.NRGBA(), opts.Size)
	return postprocess.Apply(img, opts.Fit, opts.Size, opts.FillRatio)
}
