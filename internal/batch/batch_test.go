package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"mesh-thumbnailer/internal/mesh"
	"mesh-thumbnailer/internal/metrics"
	"mesh-thumbnailer/internal/raster"
	"mesh-thumbnailer/internal/testutil"
	"mesh-thumbnailer/internal/thumbnail"
)

func echo(job thumbnail.Job) thumbnail.Result {
	return thumbnail.Result{
		FilePath:   job.Input,
		OutputPath: job.Output,
		Success:    true,
		Metadata:   &thumbnail.Metadata{Triangles: job.Size},
	}
}

func makeJobs(n int) []thumbnail.Job {
	jobs := make([]thumbnail.Job, n)
	for i := range jobs {
		jobs[i] = thumbnail.Job{Input: fmt.Sprintf("in/%d.stl", i), Output: fmt.Sprintf("out/%d.png", i), Size: 1 + i}
	}
	return jobs
}

func inputs(results []thumbnail.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.FilePath
	}
	sort.Strings(out)
	return out
}

func TestRun_ValidAndMissing(t *testing.T) {
	dir := t.TempDir()
	cube := testutil.WriteFile(t, dir, "cube.stl", testutil.BinarySTL(testutil.Cube(10, mesh.Vertex{})))
	missing := filepath.Join(dir, "missing.stl")
	jobs := []thumbnail.Job{
		{Input: cube, Output: filepath.Join(dir, "out", "cube.png"), Size: 64},
		{Input: missing, Output: filepath.Join(dir, "out", "missing.png"), Size: 64},
	}

	runner := thumbnail.NewRunner(nil, raster.DefaultOptions(thumbnail.DefaultSize), zaptest.NewLogger(t))
	s := Run(runner, jobs, Options{Workers: 2, Logger: zaptest.NewLogger(t)})

	assert.True(t, s.Success)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	require.Len(t, s.Results, 2)
	assert.NotEmpty(t, s.BatchID)

	for _, r := range s.Results {
		if r.FilePath == missing {
			assert.False(t, r.Success)
			assert.Contains(t, r.Error, missing)
			assert.Equal(t, "io", r.ErrorKind)
		} else {
			assert.True(t, r.Success, r.Error)
			assert.Equal(t, 12, r.Metadata.Triangles)
			assert.FileExists(t, r.OutputPath)
		}
	}
}

func TestRun_Streaming(t *testing.T) {
	jobs := makeJobs(25)
	var streamed []thumbnail.Result
	s := Run(ExecutorFunc(echo), jobs, Options{
		Workers: 4,
		Mode:    Streaming,
		Sink:    func(r thumbnail.Result) { streamed = append(streamed, r) },
	})

	require.Len(t, streamed, 25)
	assert.Equal(t, s.Results, streamed, "sink sees results in completion order")
	assert.Equal(t, 25, s.Succeeded)
}

func TestRun_BufferedIgnoresSink(t *testing.T) {
	called := false
	s := Run(ExecutorFunc(echo), makeJobs(3), Options{Sink: func(thumbnail.Result) { called = true }})
	assert.False(t, called)
	assert.Equal(t, 3, s.Total)
}

func TestRun_PanicIsolation(t *testing.T) {
	jobs := makeJobs(6)
	exec := ExecutorFunc(func(job thumbnail.Job) thumbnail.Result {
		if job.Size == 3 {
			panic(errors.New("renderer blew up"))
		}
		return echo(job)
	})

	s := Run(exec, jobs, Options{Workers: 3, Logger: zaptest.NewLogger(t)})
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 5, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	for _, r := range s.Results {
		if !r.Success {
			assert.Equal(t, "in/2.stl", r.FilePath)
			assert.Equal(t, "out/2.png", r.OutputPath)
			assert.Equal(t, "internal", r.ErrorKind)
			assert.Contains(t, r.Error, "renderer blew up")
		}
	}
}

func TestRun_Empty(t *testing.T) {
	s := Run(ExecutorFunc(echo), nil, Options{Workers: 4})
	assert.True(t, s.Success)
	assert.Zero(t, s.Total)
	assert.Empty(t, s.Results)
}

func TestRun_EachJobOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "jobs")
		workers := rapid.IntRange(-2, 12).Draw(t, "workers")
		jobs := makeJobs(n)

		var calls sync.Map
		var count, dups atomic.Int64
		exec := ExecutorFunc(func(job thumbnail.Job) thumbnail.Result {
			if _, dup := calls.LoadOrStore(job.Input, true); dup {
				dups.Add(1)
			}
			count.Add(1)
			if job.Size%3 == 0 {
				return thumbnail.Result{FilePath: job.Input, OutputPath: job.Output, Error: "nope", ErrorKind: "io"}
			}
			return echo(job)
		})

		s := Run(exec, jobs, Options{Workers: workers})
		if dups.Load() > 0 {
			t.Fatalf("%d jobs ran more than once", dups.Load())
		}
		if int(count.Load()) != n || s.Total != n || len(s.Results) != n {
			t.Fatalf("ran %d, total %d, results %d, want %d", count.Load(), s.Total, len(s.Results), n)
		}
		if s.Succeeded+s.Failed != s.Total {
			t.Fatalf("succeeded %d + failed %d != total %d", s.Succeeded, s.Failed, s.Total)
		}
		want := make([]thumbnail.Result, n)
		for i, j := range jobs {
			want[i] = thumbnail.Result{FilePath: j.Input}
		}
		if got, exp := strings.Join(inputs(s.Results), ","), strings.Join(inputs(want), ","); got != exp {
			t.Fatalf("results cover %s, want %s", got, exp)
		}
	})
}

func TestRun_Idempotent(t *testing.T) {
	dir := t.TempDir()
	var jobs []thumbnail.Job
	for i := 0; i < 4; i++ {
		in := testutil.WriteFile(t, dir, fmt.Sprintf("m%d.stl", i), testutil.BinarySTL(testutil.Cube(float64(i+1), mesh.Vertex{})))
		jobs = append(jobs, thumbnail.Job{Input: in, Output: filepath.Join(dir, fmt.Sprintf("m%d.png", i)), Size: 32})
	}
	jobs = append(jobs, thumbnail.Job{Input: filepath.Join(dir, "nope.3mf"), Output: filepath.Join(dir, "nope.png"), Size: 32})

	runner := thumbnail.NewRunner(nil, raster.DefaultOptions(thumbnail.DefaultSize), nil)
	index := func(s Summary) map[string]thumbnail.Result {
		m := make(map[string]thumbnail.Result)
		for _, r := range s.Results {
			m[r.FilePath] = r
		}
		return m
	}
	first := index(Run(runner, jobs, Options{Workers: 3}))
	second := index(Run(runner, jobs, Options{Workers: 1}))
	assert.Equal(t, first, second)
}

func TestRun_Metrics(t *testing.T) {
	m := metrics.NewCollector(zaptest.NewLogger(t))
	exec := ExecutorFunc(func(job thumbnail.Job) thumbnail.Result {
		if job.Size == 1 {
			panic("boom")
		}
		return echo(job)
	})
	Run(exec, makeJobs(3), Options{Workers: 2, Metrics: m})

	path := filepath.Join(t.TempDir(), "batch.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `mesh_thumbnailer_jobs_total{kind="",status="succeeded"} 2`)
	assert.Contains(t, text, `mesh_thumbnailer_jobs_total{kind="internal",status="failed"} 1`)
	assert.Contains(t, text, "mesh_thumbnailer_batches_total 1")
	assert.Contains(t, text, "mesh_thumbnailer_jobs_in_flight 0")
}

func TestRun_ProgressTicks(t *testing.T) {
	exec := ExecutorFunc(func(job thumbnail.Job) thumbnail.Result {
		time.Sleep(5 * time.Millisecond)
		return echo(job)
	})
	s := Run(exec, makeJobs(8), Options{Workers: 2, ProgressInterval: time.Millisecond, Logger: zaptest.NewLogger(t)})
	assert.Equal(t, 8, s.Succeeded)
}

func TestParseJobs(t *testing.T) {
	jobs, err := ParseJobs(strings.NewReader(`{"jobs": [
		{"input": "a.stl", "output": "a.png", "size": 128},
		{"input": "b.3mf", "output": "b.webp"}
	]}`), 0)
	require.NoError(t, err)
	assert.Equal(t, []thumbnail.Job{
		{Input: "a.stl", Output: "a.png", Size: 128},
		{Input: "b.3mf", Output: "b.webp", Size: thumbnail.DefaultSize},
	}, jobs)

	jobs, err = ParseJobs(strings.NewReader(`{"jobs": [{"input": "c.stl", "output": "c.png"}]}`), 96)
	require.NoError(t, err)
	assert.Equal(t, 96, jobs[0].Size)

	jobs, err = ParseJobs(strings.NewReader(`{}`), 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestParseJobs_RejectsWholeList(t *testing.T) {
	tests := map[string]string{
		"malformed":      `{"jobs": [`,
		"missing input":  `{"jobs": [{"input": "a.stl", "output": "a.png"}, {"output": "b.png"}]}`,
		"missing output": `{"jobs": [{"input": "a.stl"}]}`,
		"zero size":      `{"jobs": [{"input": "a.stl", "output": "a.png", "size": 0}]}`,
		"negative size":  `{"jobs": [{"input": "a.stl", "output": "a.png", "size": -5}]}`,
		"wrong type":     `{"jobs": [{"input": "a.stl", "output": "a.png", "size": "big"}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			jobs, err := ParseJobs(strings.NewReader(doc), 0)
			require.Error(t, err)
			assert.Nil(t, jobs)
			assert.True(t, errors.Is(err, mesh.ErrInvalidJob))
		})
	}
}

func TestParseJobsFile_Missing(t *testing.T) {
	_, err := ParseJobsFile(filepath.Join(t.TempDir(), "jobs.json"), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mesh.ErrIO))
}

func TestWriteSummary(t *testing.T) {
	s := Run(ExecutorFunc(echo), makeJobs(2), Options{})
	path := filepath.Join(t.TempDir(), "reports", "summary.json")
	require.NoError(t, WriteSummary(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, s.BatchID, got.BatchID)
	assert.Equal(t, 2, got.Total)
	assert.Len(t, got.Results, 2)
}
