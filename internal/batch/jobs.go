package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"mesh-thumbnailer/internal/mesh"
	"mesh-thumbnailer/internal/thumbnail"
)

type jobList struct {
	Jobs []jobEntry `json:"jobs"`
}

type jobEntry struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Size   *int   `json:"size"`
}

// ParseJobs reads a complete {"jobs": [...]} document. The whole list is
// rejected if any entry lacks input or output, or sets a size <= 0. An
// omitted size means defaultSize (thumbnail.DefaultSize when that is not
// positive); an omitted "jobs" key means an empty batch.
func ParseJobs(r io.Reader, defaultSize int) ([]thumbnail.Job, error) {
	if defaultSize <= 0 {
		defaultSize = thumbnail.DefaultSize
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, mesh.WrapError(mesh.KindIO, "batch: read jobs", "", err)
	}

	var list jobList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, mesh.WrapError(mesh.KindInvalidJob, "batch: parse jobs", "malformed job list", err)
	}

	jobs := make([]thumbnail.Job, len(list.Jobs))
	for i, s := range list.Jobs {
		switch {
		case s.Input == "":
			return nil, mesh.NewError(mesh.KindInvalidJob, "batch: parse jobs", fmt.Sprintf("job %d: missing input", i))
		case s.Output == "":
			return nil, mesh.NewError(mesh.KindInvalidJob, "batch: parse jobs", fmt.Sprintf("job %d: missing output", i))
		case s.Size != nil && *s.Size <= 0:
			return nil, mesh.NewError(mesh.KindInvalidJob, "batch: parse jobs", fmt.Sprintf("job %d: invalid size %d", i, *s.Size))
		}
		size := defaultSize
		if s.Size != nil {
			size = *s.Size
		}
		jobs[i] = thumbnail.Job{Input: s.Input, Output: s.Output, Size: size}
	}
	return jobs, nil
}

// ParseJobsFile reads a job list from disk.
func ParseJobsFile(path string, defaultSize int) ([]thumbnail.Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mesh.WrapError(mesh.KindIO, "batch: read jobs", "", err)
	}
	defer f.Close()
	return ParseJobs(f, defaultSize)
}
