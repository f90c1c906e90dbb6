package viewmatrix

import (
	"math"

	"mesh-thumbnailer/internal/mathutil"
)

// Fixed camera angles in degrees.
const (
	Elevation = 25.0
	Azimuth   = 45.0
)

// View returns the fixed thumbnail camera rotation.
func View() mathutil.Mat3 {
	return Isometric(Elevation, Azimuth)
}

// Isometric returns the view rotation for a camera orbiting the origin at the
// given elevation (above the XY plane) and azimuth (around +Z), in degrees.
// After rotation, screen X is row 0, screen up is row 1 and row 2 points
// toward the viewer. World +Z stays up on screen.
func Isometric(elevation, azimuth float64) mathutil.Mat3 {
	el := mathutil.Deg2Rad(elevation)
	az := mathutil.Deg2Rad(azimuth)
	return mathutil.Mat3Mul(mathutil.RotX(-(math.Pi/2 - el)), mathutil.RotZ(-(math.Pi/2 + az)))
}

// Frame maps view-space coordinates to pixels on a square canvas.
type Frame struct {
	Scale float64 // pixels per view unit
	Half  float64 // canvas center in pixels
}

// FitCube frames the projection of the canonical cube [-1, 1]^3 on a canvas
// of size pixels, leaving margin pixels on each side. The framing depends
// only on the rotation, never on the model.
func FitCube(R mathutil.Mat3, size int, margin float64) Frame {
	var reach float64
	for _, x := range [2]float64{-1, 1} {
		for _, y := range [2]float64{-1, 1} {
			for _, z := range [2]float64{-1, 1} {
				t := R.MulVec3(mathutil.Vec3{x, y, z})
				reach = math.Max(reach, math.Max(math.Abs(t[0]), math.Abs(t[1])))
			}
		}
	}

	half := float64(size) / 2
	avail := half - margin
	if avail < half/2 {
		avail = half / 2
	}
	return Frame{Scale: avail / reach, Half: half}
}

// Project rotates v into view space and maps it to screen coordinates.
// The result holds screen X, screen Y (down) and depth (toward viewer).
func (f Frame) Project(R mathutil.Mat3, v mathutil.Vec3) mathutil.Vec3 {
	t := R.MulVec3(v)
	return mathutil.Vec3{
		t[0]*f.Scale + f.Half,
		-t[1]*f.Scale + f.Half,
		t[2],
	}
}

// ProjectTriangle projects the three corners of a triangle with Project.
func (f Frame) ProjectTriangle(R mathutil.Mat3, tri [3]mathutil.Vec3) [3]mathutil.Vec3 {
	return [3]mathutil.Vec3{f.Project(R, tri[0]), f.Project(R, tri[1]), f.Project(R, tri[2])}
}
