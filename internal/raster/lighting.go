package raster

import (
	"image/color"
	"math"

	"mesh-thumbnailer/internal/mathutil"
)

// LightConfig is a single directional light in view space.
type LightConfig struct {
	LightDir mathutil.Vec3
	Ambient  float64
	Direct   float64
}

// DefaultLightConfig lights from the upper left, slightly toward the viewer.
func DefaultLightConfig() LightConfig {
	return LightConfig{
		LightDir: mathutil.Vec3{-0.4, 0.6, 0.7}.Normalize(),
		Ambient:  0.55,
		Direct:   0.45,
	}
}

// ComputeShade returns the brightness factor in [0, 1] for a face normal.
// Faces are double-sided.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	ndl := math.Abs(normal.Dot(lc.LightDir))
	return math.Min(1, math.Max(0, lc.Ambient+ndl*lc.Direct))
}

// ShadeColor scales the color channels of c by the shade of normal.
func (lc *LightConfig) ShadeColor(c color.NRGBA, normal mathutil.Vec3) color.NRGBA {
	s := lc.ComputeShade(normal)
	return color.NRGBA{
		R: clamp255(float64(c.R) * s),
		G: clamp255(float64(c.G) * s),
		B: clamp255(float64(c.B) * s),
		A: c.A,
	}
}

// faceNormal returns the unit normal of a view-space triangle, or the zero
// vector for a degenerate one.
func faceNormal(v [3]mathutil.Vec3) mathutil.Vec3 {
	return v[1].Sub(v[0]).Cross(v[2].Sub(v[0])).Normalize()
}
