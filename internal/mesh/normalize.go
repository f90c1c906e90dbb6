package mesh

// Normalized is a mesh re-centered on its bounding-box midpoint and
// uniformly scaled so the dominant axis spans [-1, 1].
type Normalized struct {
	*Mesh

	// Center and HalfExtent describe the transform applied to the source.
	Center     Vertex
	HalfExtent float64
}

// Normalize maps m into the canonical cube. A mesh with zero extent on
// every axis is only centered.
func Normalize(m *Mesh) *Normalized {
	box := m.Bounds()
	center := box.Center()
	half := box.Extent().MaxComponent() / 2

	src := m.Triangles()
	tris := make([]Triangle, len(src))
	for i, t := range src {
		for j, v := range t {
			d := v.Sub(center)
			if half > 0 {
				d = Vertex{d[0] / half, d[1] / half, d[2] / half}
			}
			tris[i][j] = d
		}
	}

	vol := m.volume
	if half > 0 {
		vol /= half * half * half
	}
	return &Normalized{
		Mesh:       &Mesh{tris: tris, volume: vol},
		Center:     center,
		HalfExtent: half,
	}
}
