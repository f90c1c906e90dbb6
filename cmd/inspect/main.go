package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"mesh-thumbnailer/internal/imageio"
	"mesh-thumbnailer/internal/mesh"
	"mesh-thumbnailer/internal/postprocess"
	"mesh-thumbnailer/internal/thumbnail"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: inspect <model.stl|model.3mf|thumb.png|thumb.webp|thumb.tga>")
		os.Exit(1)
	}
	path := os.Args[1]
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".webp", ".tga":
		err = inspectImage(os.Stdout, path)
	default:
		err = inspect(os.Stdout, thumbnail.DefaultRegistry(), path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func inspect(w io.Writer, reg *thumbnail.Registry, path string) error {
	load, err := reg.Lookup(path)
	if err != nil {
		return err
	}
	m, err := load(path)
	if err != nil {
		return err
	}

	box := m.Bounds()
	ext := box.Extent()
	center := box.Center()
	fmt.Fprintf(w, "File: %s\n", path)
	fmt.Fprintf(w, "Triangles: %d\n", m.Len())
	fmt.Fprintf(w, "BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n",
		box.Min[0], box.Max[0], box.Min[1], box.Max[1], box.Min[2], box.Max[2])
	fmt.Fprintf(w, "Size: %.3f x %.3f x %.3f\n", ext[0], ext[1], ext[2])
	fmt.Fprintf(w, "Center: (%.3f, %.3f, %.3f)\n", center[0], center[1], center[2])
	fmt.Fprintf(w, "Volume: %.3f\n", m.Volume())

	n := mesh.Normalize(m)
	fmt.Fprintf(w, "Half extent: %.3f\n", n.HalfExtent)

	// Surface area by dominant normal direction
	areaByDir := map[string]float64{}
	var degenerate int
	for _, t := range m.Triangles() {
		c := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
		area := 0.5 * c.Len()
		if area < 1e-12 {
			degenerate++
			continue
		}
		areaByDir[direction(c)] += area
	}
	fmt.Fprintln(w, "--- Surface area by direction ---")
	for _, d := range []string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"} {
		fmt.Fprintf(w, "  %s: %.3f\n", d, areaByDir[d])
	}
	if degenerate > 0 {
		fmt.Fprintf(w, "Degenerate triangles: %d\n", degenerate)
	}
	return nil
}

func direction(c mesh.Vertex) string {
	acx, acy, acz := math.Abs(c[0]), math.Abs(c[1]), math.Abs(c[2])
	switch {
	case acx >= acy && acx >= acz:
		if c[0] > 0 {
			return "+X"
		}
		return "-X"
	case acy >= acz:
		if c[1] > 0 {
			return "+Y"
		}
		return "-Y"
	default:
		if c[2] > 0 {
			return "+Z"
		}
		return "-Z"
	}
}

// inspectImage reports the canvas and visible content of a rendered thumbnail.
func inspectImage(w io.Writer, path string) error {
	img, err := imageio.Load(path)
	if err != nil {
		return err
	}
	b := img.Bounds()
	fmt.Fprintf(w, "File: %s\n", path)
	fmt.Fprintf(w, "Image: %dx%d\n", b.Dx(), b.Dy())

	r, ok := postprocess.AlphaBounds(img)
	if !ok {
		fmt.Fprintln(w, "Content: none (fully transparent)")
		return nil
	}
	fmt.Fprintf(w, "Content: (%d,%d)-(%d,%d) %dx%d\n", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, r.Dx(), r.Dy())

	var opaque, partial int
	for i := 3; i < len(img.Pix); i += 4 {
		switch a := img.Pix[i]; {
		case a == 255:
			opaque++
		case a > 0:
			partial++
		}
	}
	total := b.Dx() * b.Dy()
	fmt.Fprintf(w, "Opaque: %d (%.1f%%)\n", opaque, 100*float64(opaque)/float64(total))
	fmt.Fprintf(w, "Translucent: %d (%.1f%%)\n", partial, 100*float64(partial)/float64(total))
	return nil
}
