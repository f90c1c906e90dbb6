// Package threemf loads the renderable mesh from a 3MF package
// (a zip archive holding XML model documents).
package threemf

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mesh-thumbnailer/internal/mesh"
)

// MaxModelSize caps the decompressed size of the model part.
const MaxModelSize = 1 << 30

const modelSuffix = ".model"

// LoadFile opens a 3MF package from disk.
func LoadFile(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mesh.WrapError(mesh.KindIO, "3mf: read", "", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, mesh.WrapError(mesh.KindIO, "3mf: read", "", err)
	}
	return Load(f, info.Size())
}

// Load extracts the renderable mesh from a 3MF package. Construction is
// all-or-nothing: on error no mesh is returned.
func Load(r io.ReaderAt, size int64) (*mesh.Mesh, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, mesh.WrapError(mesh.KindContainer, "3mf: open archive", "not a valid zip archive", err)
	}

	part := findModelPart(zr)
	if part == nil {
		return nil, mesh.FormatError("3mf: model part", "no model part")
	}

	data, err := readPart(part)
	if err != nil {
		return nil, err
	}

	var root node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, mesh.WrapError(mesh.KindFormat, "3mf: parse "+part.Name, "malformed XML", err)
	}

	return buildMesh(&root)
}

// findModelPart returns the first archive entry ending in ".model".
func findModelPart(zr *zip.Reader) *zip.File {
	for _, f := range zr.File {
		name := f.Name
		if len(name) >= len(modelSuffix) && strings.EqualFold(name[len(name)-len(modelSuffix):], modelSuffix) {
			return f
		}
	}
	return nil
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, mesh.WrapError(mesh.KindContainer, "3mf: read "+f.Name, "", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxModelSize+1))
	if err != nil {
		return nil, mesh.WrapError(mesh.KindContainer, "3mf: read "+f.Name, "", err)
	}
	if len(data) > MaxModelSize {
		return nil, mesh.FormatError("3mf: read "+f.Name, "model part exceeds %d bytes", MaxModelSize)
	}
	return data, nil
}

func buildMesh(root *node) (*mesh.Mesh, error) {
	ns := candidates(root.XMLName.Space)

	resources := ns.child(root, "resources")
	if resources == nil {
		return nil, mesh.FormatError("3mf: resources", "no resources")
	}

	objects := ns.children(resources, "object")
	if len(objects) == 0 {
		return nil, mesh.FormatError("3mf: objects", "no object")
	}

	obj, meshNode := selectObject(ns, objects)
	if obj == nil {
		return nil, mesh.FormatError("3mf: objects", "no mesh object")
	}

	verts, err := parseVertices(ns, meshNode)
	if err != nil {
		return nil, err
	}

	tris, err := parseTriangles(ns, meshNode, verts)
	if err != nil {
		return nil, err
	}

	m, err := mesh.New(tris)
	if err != nil {
		return nil, fmt.Errorf("3mf: %w", err)
	}
	return m, nil
}

// selectObject prefers the first object typed "model" (or untyped) that
// directly holds a mesh, then falls back to the first object with a mesh
// of any type.
func selectObject(ns namespaces, objects []*node) (*node, *node) {
	for _, o := range objects {
		if typ, ok := o.attr("type"); ok && typ != "model" {
			continue
		}
		if m := ns.child(o, "mesh"); m != nil {
			return o, m
		}
	}
	for _, o := range objects {
		if m := ns.child(o, "mesh"); m != nil {
			return o, m
		}
	}
	return nil, nil
}

func parseVertices(ns namespaces, meshNode *node) ([]mesh.Vertex, error) {
	var verts []mesh.Vertex
	if vn := ns.child(meshNode, "vertices"); vn != nil {
		for i, v := range ns.children(vn, "vertex") {
			var p mesh.Vertex
			for k, axis := range [3]string{"x", "y", "z"} {
				s, ok := v.attr(axis)
				if !ok {
					continue
				}
				f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil {
					return nil, mesh.FormatError("3mf: vertices", "invalid vertex %d: %s=%q", i, axis, s)
				}
				p[k] = f
			}
			verts = append(verts, p)
		}
	}
	if len(verts) == 0 {
		return nil, mesh.FormatError("3mf: vertices", "no vertices")
	}
	return verts, nil
}

func parseTriangles(ns namespaces, meshNode *node, verts []mesh.Vertex) ([]mesh.Triangle, error) {
	var tris []mesh.Triangle
	if tn := ns.child(meshNode, "triangles"); tn != nil {
		for i, t := range ns.children(tn, "triangle") {
			var tri mesh.Triangle
			for k, key := range [3]string{"v1", "v2", "v3"} {
				s, _ := t.attr(key)
				idx, err := strconv.Atoi(strings.TrimSpace(s))
				if err != nil || idx < 0 || idx >= len(verts) {
					return nil, mesh.FormatError("3mf: triangles",
						"invalid triangle index: triangle %d %s=%q (have %d vertices)", i, key, s, len(verts))
				}
				tri[k] = verts[idx]
			}
			tris = append(tris, tri)
		}
	}
	if len(tris) == 0 {
		return nil, mesh.FormatError("3mf: triangles", "no triangles")
	}
	return tris, nil
}
