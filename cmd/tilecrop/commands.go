// commands.go - Subcommand implementations: export, preview, match, inspect and init.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/xob0t/TileCrop/pkg/config"
	"github.com/xob0t/TileCrop/pkg/export"
	"github.com/xob0t/TileCrop/pkg/generator"
	"github.com/xob0t/TileCrop/pkg/layout"
	"github.com/xob0t/TileCrop/pkg/logging"
	"github.com/xob0t/TileCrop/pkg/media"
	"github.com/xob0t/TileCrop/pkg/preview"
	"github.com/xob0t/TileCrop/pkg/render"
	"github.com/xob0t/TileCrop/pkg/session"
)

// common holds the flags shared by the media commands.
type common struct {
	configPath string
	layout     string
	match      bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", config.DefaultFileName, "YAML settings file")
	fs.StringVar(&c.layout, "layout", "", "Layout: single, split or five")
	fs.BoolVar(&c.match, "match", false, "Match heights to the source aspect ratio")
}

// setup loads the configuration, applies the flags and builds the logger.
func (c *common) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if c.layout != "" {
		mode, err := layout.ParseMode(c.layout)
		if err != nil {
			return nil, nil, err
		}
		cfg.Layout = mode
	}
	if c.match {
		cfg.MatchBackgroundHeight = true
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr), nil
}

func sourceArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: exactly one source is required", fs.Name())
	}
	return fs.Arg(0), nil
}

// openSession loads source into a new session driven by a frame scheduler.
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, source string) (*session.Session, error) {
	h, err := media.Open(ctx, source, cfg.Media())
	if err != nil {
		return nil, err
	}
	sched := render.NewFrameScheduler(cfg.Render.FrameInterval)
	s := session.New(cfg.Session(sched, logging.WithSource(logger, source)))
	if err := s.Load(h); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var c common
	c.register(fs)
	var output, prefix string
	fs.StringVar(&output, "o", "", "Output directory")
	fs.StringVar(&output, "output", "", "Output directory")
	fs.StringVar(&prefix, "prefix", "", "Tile file prefix")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}
	source, err := sourceArg(fs)
	if err != nil {
		return err
	}

	cfg, logger, err := c.setup()
	if err != nil {
		return err
	}
	if output != "" {
		cfg.OutputDir = output
	}
	if prefix != "" {
		cfg.Export.FilePrefix = prefix
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx, cfg, logger, source)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Exporting: %s (%s, %d tiles)\n", source, cfg.Layout, len(s.Tiles()))
	archive, err := s.Export(ctx)
	if err != nil {
		return err
	}
	if err := export.Deliver(export.DirSaver{Dir: cfg.OutputDir}, archive); err != nil {
		return err
	}
	fmt.Printf("Done: %s (%d files, %s)\n",
		filepath.Join(cfg.OutputDir, archive.Name), len(archive.Entries), humanize.Bytes(uint64(len(archive.Data))))
	return nil
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	var c common
	c.register(fs)
	var output string
	var labels bool
	fs.StringVar(&output, "o", "preview.png", "Preview sheet path")
	fs.StringVar(&output, "output", "preview.png", "Preview sheet path")
	fs.BoolVar(&labels, "labels", false, "Draw slot labels")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}
	source, err := sourceArg(fs)
	if err != nil {
		return err
	}
	format, err := generator.ParseStillFormat(strings.TrimPrefix(filepath.Ext(output), "."))
	if err != nil {
		return err
	}

	cfg, logger, err := c.setup()
	if err != nil {
		return err
	}
	if labels {
		cfg.Preview.Labels = true
	}

	s, err := openSession(context.Background(), cfg, logger, source)
	if err != nil {
		return err
	}
	defer s.Close()

	fonts, err := preview.NewFontManager(cfg.Preview.Font, logger)
	if err != nil {
		return err
	}
	img, err := preview.NewRenderer(fonts, cfg.PreviewOptions()).Render(s)
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := generator.EncodeStill(f, img, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Done: %s (%dx%d)\n", output, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

func runMatch(args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	var c common
	c.register(fs)
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}
	source, err := sourceArg(fs)
	if err != nil {
		return err
	}
	cfg, _, err := c.setup()
	if err != nil {
		return err
	}

	h, err := media.Open(context.Background(), source, cfg.Media())
	if err != nil {
		return err
	}
	w, hh := h.Size()
	heights, err := layout.MatchAspect(cfg.Heights, w, hh)
	if err != nil {
		return err
	}

	fmt.Printf("Source: %s (%s, %dx%d)\n\n", source, h.Kind(), w, hh)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TILE\tFILE\tSOURCE\tOUTPUT")
	for _, t := range layout.Compute(cfg.Layout, w, hh, heights) {
		fmt.Fprintf(tw, "%d\t%s\t%v\t%dx%d\n",
			t.Index, layout.FileName(cfg.Export.FilePrefix, cfg.Layout, t.Index, "png"), t.Src, t.Dst.X, t.Dst.Y)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	out, err := yaml.Marshal(map[string]layout.Config{"heights": heights})
	if err != nil {
		return err
	}
	fmt.Printf("\n%s", out)
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect: exactly one archive is required")
	}
	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	entries, err := export.ReadArchive(f, info.Size())
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d files, %s\n\n", path, len(entries), humanize.Bytes(uint64(info.Size())))
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tSTORED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, humanize.Bytes(e.Size), humanize.Bytes(e.Packed))
	}
	return tw.Flush()
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var output string
	var force bool
	fs.StringVar(&output, "o", config.DefaultFileName, "Output path for the sample config")
	fs.BoolVar(&force, "force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", output)
	}
	if err := os.WriteFile(output, []byte(config.Example()), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Created: %s\n", output)
	fmt.Println("Run: tilecrop export --config " + output + " <source>")
	return nil
}
