package batch

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mesh-thumbnailer/internal/mesh"
	"mesh-thumbnailer/internal/metrics"
	"mesh-thumbnailer/internal/thumbnail"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 4

// Executor converts one job. *thumbnail.Runner is the production executor.
type Executor interface {
	Run(job thumbnail.Job) thumbnail.Result
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(job thumbnail.Job) thumbnail.Result

func (f ExecutorFunc) Run(job thumbnail.Job) thumbnail.Result { return f(job) }

// Mode selects how results are delivered.
type Mode int

const (
	// Buffered delivers results only in the Summary.
	Buffered Mode = iota
	// Streaming also hands every result to Options.Sink as it completes.
	Streaming
)

// Options configures a batch run.
type Options struct {
	Workers int // values below 1 mean 1
	Mode    Mode
	Sink    func(thumbnail.Result) // called from a single goroutine, in completion order

	Logger           *zap.Logger
	Metrics          *metrics.Collector
	ProgressInterval time.Duration // default 2s
}

// Summary aggregates a finished batch. Succeeded+Failed == Total ==
// len(Results); Results are in completion order.
type Summary struct {
	BatchID   string             `json:"batch_id"`
	Success   bool               `json:"success"`
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Results   []thumbnail.Result `json:"results"`
}

// Run executes every job exactly once on a fixed pool of workers and waits
// for all of them. A panicking executor fails only its own job. Workers pass
// results over a channel buffered for the whole batch, so a slow sink never
// stalls them; a single collector owns the result list and calls the sink.
func Run(exec Executor, jobs []thumbnail.Job, opts Options) Summary {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if n := len(jobs); n > 0 && workers > n {
		workers = n
	}
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	batchID := uuid.NewString()
	logger = logger.With(zap.String("batch_id", batchID))
	if opts.Metrics != nil {
		opts.Metrics.BatchStarted()
	}

	total := len(jobs)
	var processed atomic.Int64
	start := time.Now()
	logger.Info("batch started", zap.Int("jobs", total), zap.Int("workers", workers))

	// Progress reporter
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := processed.Load(); p > 0 {
					elapsed := time.Since(start).Seconds()
					logger.Info("batch progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Float64("jobs_per_sec", float64(p)/elapsed))
				}
			}
		}
	}()

	// Collector
	resultCh := make(chan thumbnail.Result, total)
	collected := make(chan []thumbnail.Result, 1)
	go func() {
		results := make([]thumbnail.Result, 0, total)
		for res := range resultCh {
			results = append(results, res)
			if opts.Mode == Streaming && opts.Sink != nil {
				opts.Sink(res)
			}
		}
		collected <- results
	}()

	// Worker pool
	jobCh := make(chan int, workers*2)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for idx := range jobCh {
				resultCh <- runJob(exec, jobs[idx], opts.Metrics, logger)
				processed.Add(1)
			}
			return nil
		})
	}

	for i := range jobs {
		jobCh <- i
	}
	close(jobCh)

	_ = g.Wait() // workers never fail; panics become results
	close(resultCh)
	results := <-collected
	close(done)
	<-stopped

	s := Summary{
		BatchID: batchID,
		Success: true,
		Total:   total,
		Results: results,
	}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}

	logger.Info("batch finished",
		zap.Int("succeeded", s.Succeeded),
		zap.Int("failed", s.Failed),
		zap.Duration("elapsed", time.Since(start)))
	return s
}

func runJob(exec Executor, job thumbnail.Job, m *metrics.Collector, logger *zap.Logger) (res thumbnail.Result) {
	start := time.Now()
	if m != nil {
		m.JobStarted()
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("executor panicked", zap.String("input", job.Input), zap.Any("panic", p), zap.Stack("stack"))
			res = thumbnail.Failed(job, mesh.NewError(mesh.KindInternal, "batch", fmt.Sprintf("internal error: %v", p)))
		}
		if m != nil {
			triangles := 0
			if res.Success && res.Metadata != nil {
				triangles = res.Metadata.Triangles
			}
			m.JobFinished(res.Success, res.ErrorKind, triangles, time.Since(start))
		}
	}()
	return exec.Run(job)
}
