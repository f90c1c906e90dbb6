package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCollector_JobFinished(t *testing.T) {
	c := NewCollector(zaptest.NewLogger(t))
	c.BatchStarted()

	c.JobStarted()
	c.JobStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(c.inFlight))

	c.JobFinished(true, "", 12, 20*time.Millisecond)
	c.JobFinished(false, "io", 0, time.Millisecond)

	assert.Equal(t, 0.0, testutil.ToFloat64(c.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.jobsTotal.WithLabelValues("succeeded", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.jobsTotal.WithLabelValues("failed", "io")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.batches))
	assert.Equal(t, 1, testutil.CollectAndCount(c.triangles))

	expected := `
# HELP mesh_thumbnailer_jobs_total Completed conversion jobs by status and error kind
# TYPE mesh_thumbnailer_jobs_total counter
mesh_thumbnailer_jobs_total{kind="",status="succeeded"} 1
mesh_thumbnailer_jobs_total{kind="io",status="failed"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c.jobsTotal, strings.NewReader(expected)))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a := NewCollector(nil)
	b := NewCollector(nil)
	a.BatchStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.batches))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.batches))
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector(zaptest.NewLogger(t))
	c.JobStarted()
	c.JobFinished(true, "", 100, time.Second)

	path := filepath.Join(t.TempDir(), "thumbs.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `mesh_thumbnailer_jobs_total{kind="",status="succeeded"} 1`)
	assert.Contains(t, string(data), "mesh_thumbnailer_mesh_triangles_count 1")
}
