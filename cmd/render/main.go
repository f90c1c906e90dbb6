package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"mesh-thumbnailer/internal/batch"
	"mesh-thumbnailer/internal/config"
	"mesh-thumbnailer/internal/logging"
	"mesh-thumbnailer/internal/metrics"
	"mesh-thumbnailer/internal/thumbnail"
)

const usage = "usage: render [flags] <input> <output> [size] | render [flags] -batch <jobs.json> | render [flags] -batch-stdin"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without the process exit, for tests. JSON goes to stdout,
// diagnostics to stderr.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// CLI flags
	configFile := fs.String("config", "", "Path to a YAML or JSON config file")
	batchFile := fs.String("batch", "", "Run the jobs listed in this JSON file")
	batchStdin := fs.Bool("batch-stdin", false, "Read the job list from stdin")
	stream := fs.Bool("stream", false, "Batch: print each result as it completes, then the summary")
	workers := fs.Int("workers", 0, "Number of worker goroutines (default: 4)")
	size := fs.Int("size", 0, "Default thumbnail size in pixels (default: 256)")
	supersample := fs.Int("supersample", 0, "Render scale before downsampling (default: 2)")
	fit := fs.String("fit", "", "Output fit: crop or pad (default: crop)")
	summaryOut := fs.String("summary-out", "", "Batch: also write the summary JSON to this file")
	metricsFile := fs.String("metrics-file", "", "Batch: write Prometheus metrics to this file")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "Log format: json or console")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			return fail(stdout, err.Error())
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Size:        *size,
		Supersample: *supersample,
		Workers:     *workers,
		Fit:         *fit,
		SummaryOut:  *summaryOut,
		MetricsFile: *metricsFile,
		LogLevel:    *logLevel,
		LogFormat:   *logFormat,
	})

	logger := logging.New(cfg.Log)
	defer logger.Sync()

	opts, err := cfg.RenderOptions()
	if err != nil {
		return fail(stdout, err.Error())
	}
	runner := thumbnail.NewRunner(thumbnail.DefaultRegistry(), opts, logger)

	switch {
	case *batchFile != "" || *batchStdin:
		var jobs []thumbnail.Job
		if *batchStdin {
			jobs, err = batch.ParseJobs(stdin, cfg.Size)
		} else {
			jobs, err = batch.ParseJobsFile(*batchFile, cfg.Size)
		}
		if err != nil {
			logger.Error("cannot read job list", zap.Error(err))
			return fail(stdout, err.Error())
		}
		return runBatch(runner, jobs, cfg, *stream, stdout, logger)

	default:
		return runSingle(runner, fs.Args(), cfg.Size, stdout)
	}
}

func runSingle(runner *thumbnail.Runner, args []string, defaultSize int, stdout io.Writer) int {
	if len(args) < 2 || len(args) > 3 {
		return fail(stdout, usage)
	}
	job := thumbnail.Job{Input: args[0], Output: args[1], Size: defaultSize}
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fail(stdout, fmt.Sprintf("invalid size %q", args[2]))
		}
		job.Size = n
	}

	res := runner.Run(job)
	if err := writeIndented(stdout, res); err != nil {
		return 1
	}
	if !res.Success {
		return 1
	}
	return 0
}

func runBatch(runner *thumbnail.Runner, jobs []thumbnail.Job, cfg config.Config, stream bool, stdout io.Writer, logger *zap.Logger) int {
	collector := metrics.NewCollector(logger)
	out := newEventWriter(stdout)

	opts := batch.Options{
		Workers: cfg.Workers,
		Logger:  logger,
		Metrics: collector,
	}
	if stream {
		opts.Mode = batch.Streaming
		opts.Sink = func(r thumbnail.Result) {
			if err := out.Result(r); err != nil {
				logger.Warn("cannot write result", zap.Error(err))
			}
		}
	}

	summary := batch.Run(runner, jobs, opts)

	var err error
	if stream {
		err = out.Summary(summary)
	} else {
		err = writeLine(stdout, summary)
	}
	if err != nil {
		logger.Error("cannot write summary", zap.Error(err))
	}
	code := 0
	if err != nil || !summary.Success {
		code = 1
	}

	if cfg.SummaryOut != "" {
		if err := batch.WriteSummary(cfg.SummaryOut, summary); err != nil {
			logger.Warn("summary file not written", zap.Error(err))
		}
	}
	if cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("metrics file not written", zap.Error(err))
		}
	}

	return code
}
