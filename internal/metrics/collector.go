// Package metrics records batch conversion metrics in Prometheus form.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Namespace prefixes every metric name.
const Namespace = "mesh_thumbnailer"

// Collector holds the batch metrics on a private registry, so several
// collectors (one per test, say) never clash.
type Collector struct {
	registry *prometheus.Registry

	jobsTotal   *prometheus.CounterVec
	jobDuration prometheus.Histogram
	triangles   prometheus.Histogram
	batches     prometheus.Counter
	inFlight    prometheus.Gauge

	logger *zap.Logger
}

// NewCollector registers the metrics on a fresh registry.
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		jobsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "jobs_total",
				Help:      "Completed conversion jobs by status and error kind",
			},
			[]string{"status", "kind"},
		),
		jobDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of one conversion job",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		triangles: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "mesh_triangles",
			Help:      "Triangle count of successfully loaded meshes",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 7),
		}),
		batches: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "batches_total",
			Help:      "Batches run",
		}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "jobs_in_flight",
			Help:      "Jobs currently being converted",
		}),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// BatchStarted counts a new batch.
func (c *Collector) BatchStarted() {
	c.batches.Inc()
}

// JobStarted marks a job as in flight.
func (c *Collector) JobStarted() {
	c.inFlight.Inc()
}

// JobFinished records one completed job. kind is empty on success.
// triangles is recorded when positive.
func (c *Collector) JobFinished(success bool, kind string, triangles int, elapsed time.Duration) {
	c.inFlight.Dec()
	status := "failed"
	if success {
		status = "succeeded"
	}
	c.jobsTotal.WithLabelValues(status, kind).Inc()
	c.jobDuration.Observe(elapsed.Seconds())
	if triangles > 0 {
		c.triangles.Observe(float64(triangles))
	}
}

// WriteTextfile writes all metrics in the Prometheus text format, as read by
// node_exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	c.logger.Debug("metrics written", zap.String("path", path))
	return nil
}
