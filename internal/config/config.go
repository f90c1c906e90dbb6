package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"mesh-thumbnailer/internal/logging"
	"mesh-thumbnailer/internal/postprocess"
	"mesh-thumbnailer/internal/raster"
)

// Defaults for settings left unset.
const (
	DefaultSize        = 256
	DefaultSupersample = 2
	DefaultWorkers     = 4
	DefaultOpacity     = 0.9
	DefaultEdgeWidth   = 0.5
)

// Config holds render and batch settings. Files may be YAML or JSON.
type Config struct {
	Size        int `yaml:"size"`
	Supersample int `yaml:"supersample"`
	Workers     int `yaml:"workers"`

	Render RenderConfig   `yaml:"render"`
	Log    logging.Config `yaml:"log"`

	// Optional outputs
	SummaryOut  string `yaml:"summary_out"`
	MetricsFile string `yaml:"metrics_file"`
}

// RenderConfig is the look of a thumbnail. Pointer fields distinguish an
// explicit zero from "not set".
type RenderConfig struct {
	FaceColor string   `yaml:"face_color"`
	EdgeColor string   `yaml:"edge_color"`
	Opacity   float64  `yaml:"opacity"`
	EdgeWidth *float64 `yaml:"edge_width"`
	Shade     bool     `yaml:"shade"`
	Fit       string   `yaml:"fit"`
	FillRatio float64  `yaml:"fill_ratio"`
}

// Load reads a config file. Unknown keys are an error; fields not set in
// the file keep their zero values until Resolve.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
// Zero values leave the file's setting alone.
type Flags struct {
	Size        int
	Supersample int
	Workers     int
	Fit         string
	SummaryOut  string
	MetricsFile string
	LogLevel    string
	LogFormat   string
}

// Resolve applies flag overrides, then fills any empty field with its default.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Size > 0 {
		c.Size = flags.Size
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Fit != "" {
		c.Render.Fit = flags.Fit
	}
	if flags.SummaryOut != "" {
		c.SummaryOut = flags.SummaryOut
	}
	if flags.MetricsFile != "" {
		c.MetricsFile = flags.MetricsFile
	}
	if flags.LogLevel != "" {
		c.Log.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		c.Log.Format = flags.LogFormat
	}

	// Defaults
	if c.Size <= 0 {
		c.Size = DefaultSize
	}
	if c.Supersample <= 0 {
		c.Supersample = DefaultSupersample
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	r := &c.Render
	if r.FaceColor == "" {
		r.FaceColor = raster.DefaultFaceColor
	}
	if r.EdgeColor == "" {
		r.EdgeColor = raster.DefaultEdgeColor
	}
	if r.Opacity <= 0 || r.Opacity > 1 {
		r.Opacity = DefaultOpacity
	}
	if r.EdgeWidth == nil || *r.EdgeWidth < 0 {
		r.EdgeWidth = ptr(DefaultEdgeWidth)
	}
	if r.Fit == "" {
		r.Fit = string(postprocess.FitCrop)
	}
	if r.FillRatio <= 0 || r.FillRatio > 1 {
		r.FillRatio = postprocess.DefaultFillRatio
	}
}

// RenderOptions converts a resolved config into renderer options.
func (c *Config) RenderOptions() (raster.Options, error) {
	opts := raster.DefaultOptions(c.Size)
	opts.Supersample = c.Supersample

	var err error
	if opts.FaceColor, err = raster.ParseHexColor(c.Render.FaceColor); err != nil {
		return raster.Options{}, fmt.Errorf("config: face_color: %w", err)
	}
	if opts.EdgeColor, err = raster.ParseHexColor(c.Render.EdgeColor); err != nil {
		return raster.Options{}, fmt.Errorf("config: edge_color: %w", err)
	}
	if opts.Fit, err = postprocess.ParseFit(c.Render.Fit); err != nil {
		return raster.Options{}, fmt.Errorf("config: %w", err)
	}

	opts.Opacity = c.Render.Opacity
	opts.Shade = c.Render.Shade
	opts.FillRatio = c.Render.FillRatio
	if c.Render.EdgeWidth != nil {
		opts.EdgeWidth = *c.Render.EdgeWidth
	}
	return opts, nil
}

func ptr[T any](v T) *T { return &v }
