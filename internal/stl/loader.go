// Package stl loads binary and ASCII STL files into a mesh.Mesh.
package stl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	stlfmt "github.com/hschendel/stl"

	"mesh-thumbnailer/internal/mesh"
)

// Binary layout: 80-byte header, uint32 facet count, 50 bytes per facet.
const (
	binaryHeaderSize = 84
	binaryFacetSize  = 50
)

// LoadFile reads an STL file from disk.
func LoadFile(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mesh.WrapError(mesh.KindIO, "stl: read", "", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses an STL stream. The binary or ASCII variant is detected from
// the content. Each facet becomes one triangle, in file order.
func Load(r io.Reader) (*mesh.Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, mesh.WrapError(mesh.KindIO, "stl: read", "", err)
	}
	if err := checkBinarySize(data); err != nil {
		return nil, err
	}

	solid, err := stlfmt.ReadAll(bytes.NewReader(asciiHeader(data)))
	if err != nil {
		return nil, mesh.WrapError(mesh.KindFormat, "stl: parse", "", err)
	}

	tris := make([]mesh.Triangle, len(solid.Triangles))
	for i, t := range solid.Triangles {
		for j, v := range t.Vertices {
			tris[i][j] = mesh.Vertex{float64(v[0]), float64(v[1]), float64(v[2])}
		}
	}

	m, err := mesh.New(tris)
	if err != nil {
		return nil, fmt.Errorf("stl: %w", err)
	}
	return m, nil
}

// asciiHeader strips whitespace before an ASCII "solid" line and gives a
// nameless header the "solid " prefix the parser requires. Binary input is
// returned unchanged.
func asciiHeader(data []byte) []byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("solid")) || looksBinary(data) {
		return data
	}
	rest := trimmed[len("solid"):]
	if len(rest) == 0 || rest[0] == ' ' {
		return trimmed
	}
	out := make([]byte, 0, len(trimmed)+1)
	out = append(out, "solid "...)
	return append(out, rest...)
}

// checkBinarySize rejects binary files whose declared facet count does not
// match their length. ASCII input is left to the parser.
func checkBinarySize(data []byte) error {
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		if !looksBinary(data) {
			return nil
		}
	}
	if len(data) < binaryHeaderSize {
		return mesh.FormatError("stl: parse", "truncated header (%d bytes)", len(data))
	}
	count := int64(binary.LittleEndian.Uint32(data[80:84]))
	want := binaryHeaderSize + count*binaryFacetSize
	if int64(len(data)) != want {
		return mesh.FormatError("stl: parse", "inconsistent facet count: header declares %d facets (%d bytes), file has %d bytes",
			count, want, len(data))
	}
	return nil
}

// looksBinary catches binary files whose free-form header happens to start
// with "solid": the declared count matches the length exactly.
func looksBinary(data []byte) bool {
	if len(data) < binaryHeaderSize {
		return false
	}
	count := int64(binary.LittleEndian.Uint32(data[80:84]))
	return int64(len(data)) == binaryHeaderSize+count*binaryFacetSize
}
