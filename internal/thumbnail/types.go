// Package thumbnail turns one model file into one image: format dispatch,
// load, normalize, render and save, with every failure reported as data.
package thumbnail

import "mesh-thumbnailer/internal/mesh"

// DefaultSize is the thumbnail bound used when a job does not set one.
const DefaultSize = 256

// Job is one conversion request.
type Job struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Size   int    `json:"size"`
}

// Dimensions are the extents of the source mesh in model units.
type Dimensions struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Metadata describes the source mesh, before normalization. Volume is the
// signed enclosed volume in cubic model units.
type Metadata struct {
	Dimensions Dimensions `json:"dimensions"`
	Triangles  int        `json:"triangles"`
	Volume     float64    `json:"volume"`
}

// Result is the outcome of one job. Success implies Metadata is set and
// Error is empty; failure implies Error and ErrorKind are set and Metadata
// is nil.
type Result struct {
	FilePath   string    `json:"file_path"`
	OutputPath string    `json:"output_path"`
	Success    bool      `json:"success"`
	Metadata   *Metadata `json:"metadata,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
}

// MetadataOf reports the source-space extents, triangle count and volume
// of m.
func MetadataOf(m *mesh.Mesh) *Metadata {
	ext := m.Bounds().Extent()
	return &Metadata{
		Dimensions: Dimensions{X: ext[0], Y: ext[1], Z: ext[2]},
		Triangles:  m.Len(),
		Volume:     m.Volume(),
	}
}

// Failed builds a failed Result for job from err.
func Failed(job Job, err error) Result {
	return Result{
		FilePath:   job.Input,
		OutputPath: job.Output,
		Error:      err.Error(),
		ErrorKind:  mesh.KindOf(err).String(),
	}
}
