package mesh_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"mesh-thumbnailer/internal/mesh"
	"mesh-thumbnailer/internal/testutil"
)

func TestNew_RejectsEmpty(t *testing.T) {
	m, err := mesh.New(nil)
	require.Error(t, err)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, mesh.ErrDegenerate))
	assert.True(t, errors.Is(err, mesh.ErrFormat), "degenerate is a format error")
	assert.Equal(t, mesh.KindDegenerate, mesh.KindOf(err))
}

func TestNew_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		v    float64
	}{
		{"nan", math.NaN()},
		{"+inf", math.Inf(1)},
		{"-inf", math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := testutil.Cube(1, mesh.Vertex{})
			tris[3][1][2] = tt.v
			_, err := mesh.New(tris)
			require.Error(t, err)
			assert.True(t, errors.Is(err, mesh.ErrFormat))
			assert.False(t, errors.Is(err, mesh.ErrDegenerate))
			assert.Contains(t, err.Error(), "triangle 3 vertex 1")
		})
	}
}

func TestNew_RejectsOverflowingRange(t *testing.T) {
	tests := []struct {
		name string
		tris []mesh.Triangle
		msg  string
	}{
		{
			"extent",
			[]mesh.Triangle{{{-1.7e308, 0, 0}, {1.7e308, 0, 0}, {0, 1, 0}}},
			"coordinate range overflows",
		},
		{
			"volume",
			testutil.Cube(1e110, mesh.Vertex{}),
			"coordinate range overflows volume",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := mesh.New(tt.tris)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, mesh.ErrFormat))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestBounds_CenterOfHugeSameSignRange(t *testing.T) {
	m, err := mesh.New([]mesh.Triangle{{{1e308, 0, 0}, {1.6e308, 0, 0}, {1.6e308, 1, 0}}})
	require.NoError(t, err)
	c := m.Bounds().Center()
	assert.True(t, c.IsFinite())
	assert.InDelta(t, 1.3e308, c[0], 1e294)
}

func TestVolume(t *testing.T) {
	m, err := mesh.New(testutil.Cube(20, mesh.Vertex{}))
	require.NoError(t, err)
	assert.InDelta(t, 8000, m.Volume(), 1e-9)

	// translation does not change the volume of a closed mesh
	m, err = mesh.New(testutil.Cube(20, mesh.Vertex{-35, 12, 7}))
	require.NoError(t, err)
	assert.InDelta(t, 8000, m.Volume(), 1e-6)

	// inward winding flips the sign
	inv := testutil.Cube(2, mesh.Vertex{})
	for i := range inv {
		inv[i][1], inv[i][2] = inv[i][2], inv[i][1]
	}
	m, err = mesh.New(inv)
	require.NoError(t, err)
	assert.InDelta(t, -8, m.Volume(), 1e-12)

	// normalization rescales to the canonical cube
	m, err = mesh.New(testutil.Cube(4, mesh.Vertex{1, 1, 1}))
	require.NoError(t, err)
	assert.InDelta(t, 8, mesh.Normalize(m).Volume(), 1e-12)
}

func TestBounds(t *testing.T) {
	m, err := mesh.New(testutil.Cube(2, mesh.Vertex{-1, 3, 10}))
	require.NoError(t, err)
	assert.Equal(t, 12, m.Len())

	box := m.Bounds()
	assert.Equal(t, mesh.Vertex{-1, 3, 10}, box.Min)
	assert.Equal(t, mesh.Vertex{1, 5, 12}, box.Max)
	assert.Equal(t, mesh.Vertex{2, 2, 2}, box.Extent())
	assert.Equal(t, mesh.Vertex{0, 4, 11}, box.Center())
}

func TestBounds_NegativeOnlyCoordinates(t *testing.T) {
	// running min/max must start from the first vertex, not zero
	m, err := mesh.New([]mesh.Triangle{{{-5, -6, -7}, {-4, -6, -7}, {-5, -5, -8}}})
	require.NoError(t, err)
	box := m.Bounds()
	assert.Equal(t, mesh.Vertex{-5, -6, -8}, box.Min)
	assert.Equal(t, mesh.Vertex{-4, -5, -7}, box.Max)
}

func TestNormalize_Cube(t *testing.T) {
	m, err := mesh.New(testutil.Cube(20, mesh.Vertex{100, 100, 0}))
	require.NoError(t, err)

	n := mesh.Normalize(m)
	assert.Equal(t, 10.0, n.HalfExtent)
	assert.Equal(t, mesh.Vertex{110, 110, 10}, n.Center)
	assert.Equal(t, m.Len(), n.Len())

	box := n.Bounds()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, -1, box.Min[i], 1e-12)
		assert.InDelta(t, 1, box.Max[i], 1e-12)
	}
}

func TestNormalize_KeepsAspectRatio(t *testing.T) {
	tris := []mesh.Triangle{{{0, 0, 0}, {10, 0, 0}, {0, 2, 1}}}
	m, err := mesh.New(tris)
	require.NoError(t, err)

	box := mesh.Normalize(m).Bounds()
	assert.InDelta(t, 2, box.Extent()[0], 1e-12)
	assert.InDelta(t, 0.4, box.Extent()[1], 1e-12)
	assert.InDelta(t, 0.2, box.Extent()[2], 1e-12)
}

func TestNormalize_PointMesh(t *testing.T) {
	p := mesh.Vertex{3, -2, 7}
	m, err := mesh.New([]mesh.Triangle{{p, p, p}, {p, p, p}})
	require.NoError(t, err)

	n := mesh.Normalize(m)
	assert.Zero(t, n.HalfExtent)
	for _, tri := range n.Triangles() {
		for _, v := range tri {
			assert.Equal(t, mesh.Vertex{}, v)
		}
	}
}

func TestNormalize_DoesNotModifySource(t *testing.T) {
	tris := testutil.Cube(4, mesh.Vertex{1, 1, 1})
	m, err := mesh.New(tris)
	require.NoError(t, err)

	mesh.Normalize(m)
	assert.Equal(t, testutil.Cube(4, mesh.Vertex{1, 1, 1}), m.Triangles())
}

func TestNormalize_DominantAxisInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "triangles")
		coord := rapid.Float64Range(-1e6, 1e6)
		tris := make([]mesh.Triangle, n)
		for i := range tris {
			for j := 0; j < 3; j++ {
				tris[i][j] = mesh.Vertex{coord.Draw(t, "x"), coord.Draw(t, "y"), coord.Draw(t, "z")}
			}
		}
		m, err := mesh.New(tris)
		if err != nil {
			t.Fatalf("new: %v", err)
		}

		nm := mesh.Normalize(m)
		const eps = 1e-9
		for _, tri := range nm.Triangles() {
			for _, v := range tri {
				for k := 0; k < 3; k++ {
					if math.Abs(v[k]) > 1+eps {
						t.Fatalf("coordinate %v outside [-1, 1]", v[k])
					}
				}
			}
		}
		if nm.HalfExtent > 0 {
			ext := nm.Bounds().Extent().MaxComponent()
			if math.Abs(ext-2) > 1e-6 {
				t.Fatalf("dominant extent %v, want 2", ext)
			}
		}
	})
}

func TestErrorMessages(t *testing.T) {
	err := mesh.WrapError(mesh.KindIO, "stl: read", "open cube.stl", errors.New("permission denied"))
	assert.Equal(t, "stl: read: open cube.stl: permission denied", err.Error())
	assert.True(t, errors.Is(err, mesh.ErrIO))
	assert.False(t, errors.Is(err, mesh.ErrFormat))

	assert.Equal(t, "3mf: resources: no resources", mesh.FormatError("3mf: resources", "no resources").Error())
	assert.Equal(t, mesh.KindInternal, mesh.KindOf(errors.New("plain")))
	assert.Equal(t, "unsupported_format", mesh.KindUnsupported.String())
}
