package thumbnail

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"mesh-thumbnailer/internal/imageio"
	"mesh-thumbnailer/internal/mesh"
	"mesh-thumbnailer/internal/raster"
)

// Runner executes single jobs. It is safe for concurrent use once built.
type Runner struct {
	registry *Registry
	render   raster.Options
	logger   *zap.Logger
}

// NewRunner builds a runner. render supplies the look; its Size is replaced
// by each job's size. A nil registry means DefaultRegistry, a nil logger
// discards logs.
func NewRunner(registry *Registry, render raster.Options, logger *zap.Logger) *Runner {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{registry: registry, render: render, logger: logger}
}

// Run converts one model file. It never panics and never returns an error:
// every failure, including a panic in a loader or the renderer, becomes a
// failed Result.
func (r *Runner) Run(job Job) (res Result) {
	start := time.Now()
	log := r.logger.With(zap.String("input", job.Input), zap.String("output", job.Output))

	defer func() {
		if p := recover(); p != nil {
			log.Error("job panicked", zap.Any("panic", p), zap.Stack("stack"))
			res = Failed(job, mesh.NewError(mesh.KindInternal, "thumbnail", fmt.Sprintf("internal error: %v", p)))
		}
	}()

	meta, err := r.convert(job)
	if err != nil {
		res = Failed(job, err)
		log.Warn("job failed", zap.String("kind", res.ErrorKind), zap.Error(err))
		return res
	}

	res = Result{FilePath: job.Input, OutputPath: job.Output, Success: true, Metadata: meta}
	log.Debug("job done",
		zap.Int("triangles", meta.Triangles),
		zap.Duration("elapsed", time.Since(start)))
	return res
}

func (r *Runner) convert(job Job) (*Metadata, error) {
	if err := Validate(job); err != nil {
		return nil, err
	}

	load, err := r.registry.Lookup(job.Input)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(job.Input); err != nil {
		return nil, mesh.WrapError(mesh.KindIO, "thumbnail", "input not found", err)
	}

	m, err := load(job.Input)
	if err != nil {
		return nil, err
	}

	opts := r.render
	opts.Size = job.Size
	img := raster.Render(mesh.Normalize(m), opts)

	if err := imageio.Save(job.Output, img); err != nil {
		return nil, mesh.WrapError(mesh.KindIO, "thumbnail: save", "", err)
	}
	return MetadataOf(m), nil
}

// Validate checks the fields every job needs.
func Validate(job Job) error {
	switch {
	case job.Input == "":
		return mesh.NewError(mesh.KindInvalidJob, "thumbnail", "job has no input path")
	case job.Output == "":
		return mesh.NewError(mesh.KindInvalidJob, "thumbnail", "job has no output path")
	case job.Size <= 0:
		return mesh.NewError(mesh.KindInvalidJob, "thumbnail", fmt.Sprintf("invalid size %d (must be > 0)", job.Size))
	}
	return nil
}
