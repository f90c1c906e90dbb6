// Package testutil builds STL and 3MF fixtures for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mesh-thumbnailer/internal/mesh"
)

// 3MF core namespaces seen in the wild.
const (
	NamespaceMicrosoft = "http://schemas.microsoft.com/3dmanufacturing/core/2015/02"
	NamespaceOpenXML   = "http://schemas.openxmlformats.org/3dmanufacturing/core/2015/02"
)

// CubeVertices are the corners of the unit cube.
var CubeVertices = []mesh.Vertex{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// CubeFaces index CubeVertices with outward winding, two triangles per side.
var CubeFaces = [][3]int{
	{0, 2, 1}, {0, 3, 2}, // bottom
	{4, 5, 6}, {4, 6, 7}, // top
	{0, 1, 5}, {0, 5, 4}, // front
	{3, 7, 6}, {3, 6, 2}, // back
	{0, 4, 7}, {0, 7, 3}, // left
	{1, 2, 6}, {1, 6, 5}, // right
}

// Cube returns the 12 triangles of an axis-aligned cube with the given edge
// length and minimum corner.
func Cube(edge float64, origin mesh.Vertex) []mesh.Triangle {
	tris := make([]mesh.Triangle, len(CubeFaces))
	for i, f := range CubeFaces {
		for j, idx := range f {
			tris[i][j] = CubeVertices[idx].Scale(edge).Add(origin)
		}
	}
	return tris
}

// BinarySTL encodes tris as a binary STL with a zero header.
func BinarySTL(tris []mesh.Triangle) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	binary.Write(&buf, binary.LittleEndian, uint32(len(tris)))
	for _, t := range tris {
		rec := make([]float32, 12)
		for j, v := range t {
			for k := 0; k < 3; k++ {
				rec[3+j*3+k] = float32(v[k])
			}
		}
		binary.Write(&buf, binary.LittleEndian, rec)
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

// BinarySTLWithCoord is like BinarySTL but overwrites the first coordinate of
// the first triangle with c, e.g. NaN.
func BinarySTLWithCoord(tris []mesh.Triangle, c float32) []byte {
	data := BinarySTL(tris)
	// header + count + normal
	binary.LittleEndian.PutUint32(data[84+12:], math.Float32bits(c))
	return data
}

// ASCIISTL encodes tris as an ASCII STL solid.
func ASCIISTL(name string, tris []mesh.Triangle) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "solid %s\n", name)
	for _, t := range tris {
		sb.WriteString("  facet normal 0 0 0\n    outer loop\n")
		for _, v := range t {
			fmt.Fprintf(&sb, "      vertex %g %g %g\n", v[0], v[1], v[2])
		}
		sb.WriteString("    endloop\n  endfacet\n")
	}
	fmt.Fprintf(&sb, "endsolid %s\n", name)
	return []byte(sb.String())
}

// Object describes one <object> element of a 3MF model document.
type Object struct {
	ID        int
	Type      string // empty omits the attribute
	Vertices  []mesh.Vertex
	Triangles [][3]int
	NoMesh    bool
}

// CubeObject returns an object holding the unit cube.
func CubeObject(id int, typ string) Object {
	return Object{ID: id, Type: typ, Vertices: CubeVertices, Triangles: CubeFaces}
}

// ModelXML renders a 3MF model document. An empty ns produces a document
// without a default namespace.
func ModelXML(ns string, objects ...Object) []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	if ns == "" {
		sb.WriteString(`<model unit="millimeter">` + "\n")
	} else {
		fmt.Fprintf(&sb, `<model unit="millimeter" xmlns="%s">`+"\n", ns)
	}
	sb.WriteString("  <resources>\n")
	for _, o := range objects {
		if o.Type != "" {
			fmt.Fprintf(&sb, `    <object id="%d" type="%s">`+"\n", o.ID, o.Type)
		} else {
			fmt.Fprintf(&sb, `    <object id="%d">`+"\n", o.ID)
		}
		if !o.NoMesh {
			sb.WriteString("      <mesh>\n        <vertices>\n")
			for _, v := range o.Vertices {
				fmt.Fprintf(&sb, `          <vertex x="%g" y="%g" z="%g"/>`+"\n", v[0], v[1], v[2])
			}
			sb.WriteString("        </vertices>\n        <triangles>\n")
			for _, t := range o.Triangles {
				fmt.Fprintf(&sb, `          <triangle v1="%d" v2="%d" v3="%d"/>`+"\n", t[0], t[1], t[2])
			}
			sb.WriteString("        </triangles>\n      </mesh>\n")
		}
		sb.WriteString("    </object>\n")
	}
	sb.WriteString("  </resources>\n  <build/>\n</model>\n")
	return []byte(sb.String())
}

// Entry is a named zip member.
type Entry struct {
	Name string
	Data []byte
}

// Zip packs entries into an archive in the given order.
func Zip(t testing.TB, entries ...Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("zip write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// ThreeMF packs a model document the way producers do, with a content-types
// part ahead of the model part.
func ThreeMF(t testing.TB, model []byte) []byte {
	t.Helper()
	return Zip(t,
		Entry{Name: "[Content_Types].xml", Data: []byte(`<?xml version="1.0"?><Types/>`)},
		Entry{Name: "3D/3dmodel.model", Data: model},
	)
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
