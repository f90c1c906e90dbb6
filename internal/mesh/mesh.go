// Package mesh holds the uniform triangle representation shared by the
// loaders and the renderer, plus bounding-box and normalization helpers.
package mesh

import (
	"math"

	"mesh-thumbnailer/internal/mathutil"
)

// Vertex is a position in model units.
type Vertex = mathutil.Vec3

// Triangle holds three vertices; their order defines the winding.
type Triangle [3]Vertex

// Mesh is a validated, non-empty list of triangles with finite coordinates,
// a finite bounding-box extent and a finite signed volume.
// The zero value is not usable; build one with New.
type Mesh struct {
	tris   []Triangle
	volume float64
}

// New validates tris and wraps them in a Mesh. The slice is retained.
func New(tris []Triangle) (*Mesh, error) {
	if len(tris) == 0 {
		return nil, NewError(KindDegenerate, "mesh", "no triangles")
	}
	for i, t := range tris {
		for j, v := range t {
			if !v.IsFinite() {
				return nil, FormatError("mesh", "non-finite coordinate in triangle %d vertex %d", i, j)
			}
		}
	}
	m := &Mesh{tris: tris}
	if !m.Bounds().Extent().IsFinite() {
		return nil, FormatError("mesh", "coordinate range overflows")
	}
	m.volume = signedVolume(tris)
	if math.IsNaN(m.volume) || math.IsInf(m.volume, 0) {
		return nil, FormatError("mesh", "coordinate range overflows volume")
	}
	return m, nil
}

// signedVolume sums the signed tetrahedra spanned by the origin and each
// triangle. Closed meshes with outward winding give a positive volume.
func signedVolume(tris []Triangle) float64 {
	var sum float64
	for _, t := range tris {
		sum += t[0].Dot(t[1].Cross(t[2]))
	}
	return sum / 6
}

// Len returns the triangle count.
func (m *Mesh) Len() int {
	return len(m.tris)
}

// Volume returns the signed volume enclosed by the mesh in cubic model
// units. It is only meaningful for closed meshes.
func (m *Mesh) Volume() float64 {
	return m.volume
}

// Triangles returns the triangles in construction order.
// Callers must not modify the returned slice.
func (m *Mesh) Triangles() []Triangle {
	return m.tris
}

// BoundingBox is an axis-aligned box; Min[i] <= Max[i] on every axis.
type BoundingBox struct {
	Min, Max Vertex
}

// Extent returns Max - Min.
func (b BoundingBox) Extent() mathutil.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box. It stays finite whenever the
// extent does.
func (b BoundingBox) Center() Vertex {
	return b.Min.Add(b.Extent().Scale(0.5))
}

// Bounds computes the bounding box in one pass over all vertices.
func (m *Mesh) Bounds() BoundingBox {
	first := m.tris[0][0]
	box := BoundingBox{Min: first, Max: first}
	for _, t := range m.tris {
		for _, v := range t {
			box.Min = box.Min.Min(v)
			box.Max = box.Max.Max(v)
		}
	}
	return box
}
