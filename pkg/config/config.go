// Package config loads TileCrop settings from an optional YAML file with
// environment variable overrides and sensible defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xob0t/TileCrop/pkg/export"
	"github.com/xob0t/TileCrop/pkg/generator"
	"github.com/xob0t/TileCrop/pkg/layout"
	"github.com/xob0t/TileCrop/pkg/media"
	"github.com/xob0t/TileCrop/pkg/preview"
	"github.com/xob0t/TileCrop/pkg/render"
	"github.com/xob0t/TileCrop/pkg/session"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultFileName  = "tilecrop.yaml"

	// Environment variable names
	EnvLogLevel  = "TILECROP_LOG_LEVEL"
	EnvLogFormat = "TILECROP_LOG_FORMAT"
	EnvOutputDir = "TILECROP_OUTPUT_DIR"
	EnvFFmpeg    = "TILECROP_FFMPEG"
)

// Config holds all TileCrop configuration.
type Config struct {
	Layout                layout.Mode   `yaml:"layout"`
	Heights               layout.Config `yaml:"heights"`
	MatchBackgroundHeight bool          `yaml:"match_background_height"`
	OutputDir             string        `yaml:"output_dir"`
	FFmpeg                string        `yaml:"ffmpeg"`
	Export                ExportConfig  `yaml:"export"`
	Render                RenderConfig  `yaml:"render"`
	Preview               PreviewConfig `yaml:"preview"`
	Log                   LogConfig     `yaml:"log"`
}

// ExportConfig controls capture and archive naming.
type ExportConfig struct {
	FPS              int           `yaml:"fps"`
	FallbackDuration time.Duration `yaml:"fallback_duration"`
	SettleDelay      time.Duration `yaml:"settle_delay"`
	ArchiveName      string        `yaml:"archive_name"`
	FilePrefix       string        `yaml:"file_prefix"`
	StillFormat      string        `yaml:"still_format"`
	JPEGQuality      int           `yaml:"jpeg_quality"`
}

// RenderConfig controls the render loop.
type RenderConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`
	Filter        string        `yaml:"filter"`
	CacheFrames   int           `yaml:"cache_frames"`
}

// PreviewConfig controls preview sheets.
type PreviewConfig struct {
	Background string `yaml:"background"`
	Gap        int    `yaml:"gap"`
	Labels     bool   `yaml:"labels"`
	Font       string `yaml:"font"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) defaults() {
	c.Heights = c.Heights.Normalize()
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.FFmpeg == "" {
		c.FFmpeg = media.DefaultFFmpeg
	}
	if c.Export.FPS <= 0 {
		c.Export.FPS = export.DefaultFPS
	}
	if c.Export.FallbackDuration <= 0 {
		c.Export.FallbackDuration = export.DefaultFallbackDuration
	}
	if c.Export.SettleDelay == 0 {
		c.Export.SettleDelay = export.DefaultSettleDelay
	}
	if c.Export.ArchiveName == "" {
		c.Export.ArchiveName = export.DefaultArchiveName
	}
	if c.Export.FilePrefix == "" {
		c.Export.FilePrefix = layout.DefaultFilePrefix
	}
	if c.Export.StillFormat == "" {
		c.Export.StillFormat = string(generator.PNG)
	}
	if c.Export.JPEGQuality <= 0 {
		c.Export.JPEGQuality = generator.DefaultJPEGQuality
	}
	if c.Render.FrameInterval <= 0 {
		c.Render.FrameInterval = render.DefaultFrameInterval
	}
	if c.Render.Filter == "" {
		c.Render.Filter = string(render.Bilinear)
	}
	if c.Render.CacheFrames <= 0 {
		c.Render.CacheFrames = media.DefaultCacheFrames
	}
	if c.Preview.Gap <= 0 {
		c.Preview.Gap = preview.DefaultGap
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// applyEnv overrides file values from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvFFmpeg); v != "" {
		c.FFmpeg = v
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.defaults()
	return cfg
}

// Load reads the YAML file at path, applies environment overrides and
// fills defaults. A missing file is not an error when path is the
// default file name.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && path == DefaultFileName:
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Layout.TileCount() == 0 {
		return fmt.Errorf("layout: %w %d", layout.ErrUnknownMode, int(c.Layout))
	}
	if c.Export.FPS > 120 {
		return fmt.Errorf("export.fps %d out of range 1..120", c.Export.FPS)
	}
	if c.Export.JPEGQuality > 100 {
		return fmt.Errorf("export.jpeg_quality %d out of range 1..100", c.Export.JPEGQuality)
	}
	if _, err := generator.ParseStillFormat(c.Export.StillFormat); err != nil {
		return fmt.Errorf("export.still_format: %w", err)
	}
	if _, err := render.ParseFilter(c.Render.Filter); err != nil {
		return fmt.Errorf("render.filter: %w", err)
	}
	if _, err := generator.ParseColor(c.Preview.Background); err != nil {
		return fmt.Errorf("preview.background: %w", err)
	}
	return nil
}

// Pipeline builds the export pipeline.
func (c *Config) Pipeline(logger *slog.Logger) export.Pipeline {
	format, _ := generator.ParseStillFormat(c.Export.StillFormat)
	return export.Pipeline{
		FPS:              c.Export.FPS,
		FallbackDuration: c.Export.FallbackDuration,
		SettleDelay:      c.Export.SettleDelay,
		StillFormat:      format,
		JPEGQuality:      c.Export.JPEGQuality,
		ArchiveName:      c.Export.ArchiveName,
		FilePrefix:       c.Export.FilePrefix,
		Logger:           logger,
	}
}

// Session builds session options around sched.
func (c *Config) Session(sched render.Scheduler, logger *slog.Logger) session.Options {
	filter, _ := render.ParseFilter(c.Render.Filter)
	return session.Options{
		Mode:        c.Layout,
		Config:      c.Heights,
		MatchOnLoad: c.MatchBackgroundHeight,
		Scheduler:   sched,
		Painter:     render.NewPainter(filter, nil),
		Pipeline:    c.Pipeline(logger),
		Logger:      logger,
	}
}

// Media returns loader options for sources.
func (c *Config) Media() media.Options {
	return media.Options{Loop: true, FFmpeg: c.FFmpeg, CacheFrames: c.Render.CacheFrames}
}

// PreviewOptions converts the preview section.
func (c *Config) PreviewOptions() preview.Options {
	opts := preview.Options{Gap: c.Preview.Gap, Labels: c.Preview.Labels}
	if c.Preview.Background != "" {
		if bg, err := generator.ParseColor(c.Preview.Background); err == nil {
			opts.Background = bg
		}
	}
	return opts
}

// Example returns a commented sample configuration file.
func Example() string {
	return `# TileCrop configuration
layout: single            # single | split | five

heights:
  single: 353
  split_main: 353
  split_right: 353
  five_row: 353
  row_count: 1
  row1: 646
  row2: 122
  row3: 122

# Recompute heights from the media aspect ratio on every load.
match_background_height: false

output_dir: .
ffmpeg: ffmpeg

export:
  fps: 30
  fallback_duration: 5s
  settle_delay: 300ms
  archive_name: steam_crop_export.zip
  file_prefix: myworkshop
  still_format: png       # png | bmp
  jpeg_quality: 90

render:
  frame_interval: 16ms
  filter: bilinear        # nearest | bilinear | catmullrom
  cache_frames: 16        # decoded video frames kept in memory

preview:
  background: "#1b2838"
  gap: 8
  labels: true

log:
  level: info
  format: text            # text | json
`
}
