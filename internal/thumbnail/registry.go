package thumbnail

import (
	"path/filepath"
	"sort"
	"strings"

	"mesh-thumbnailer/internal/mesh"
	"mesh-thumbnailer/internal/stl"
	"mesh-thumbnailer/internal/threemf"
)

// Loader reads a model file into a mesh.
type Loader func(path string) (*mesh.Mesh, error)

// Registry maps lower-case file extensions (with the dot) to loaders.
type Registry struct {
	loaders map[string]Loader
}

func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]Loader)}
}

// DefaultRegistry knows .stl and .3mf.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".stl", stl.LoadFile)
	r.Register(".3mf", threemf.LoadFile)
	return r
}

// Register adds or replaces the loader for ext.
func (r *Registry) Register(ext string, l Loader) {
	r.loaders[strings.ToLower(ext)] = l
}

// Lookup finds the loader for path by its extension, case-insensitively.
func (r *Registry) Lookup(path string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if l, ok := r.loaders[ext]; ok {
		return l, nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return nil, mesh.NewError(mesh.KindUnsupported, "thumbnail",
		"unsupported file type: "+ext+"; supported: "+strings.Join(r.Extensions(), ", "))
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.loaders))
	for e := range r.loaders {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return exts
}
