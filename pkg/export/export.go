// Package export captures every tile surface of a session, encodes it as a
// still or a clip and bundles the results into one zip archive.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/xob0t/TileCrop/pkg/generator"
	"github.com/xob0t/TileCrop/pkg/layout"
	"github.com/xob0t/TileCrop/pkg/logging"
	"github.com/xob0t/TileCrop/pkg/media"
)

const (
	DefaultFPS              = 30
	DefaultFallbackDuration = 5 * time.Second
	DefaultSettleDelay      = 300 * time.Millisecond
)

// Source is a tile surface that can be captured. render.Surface
// implements it.
type Source interface {
	// Snapshot returns a copy of the latest completed paint, or false if
	// the surface has never been painted.
	Snapshot() (*image.RGBA, bool)
}

// Job describes one export. Sources[i] holds tile i of Mode; a nil or
// missing entry skips that tile.
type Job struct {
	Mode layout.Mode
	Kind media.Kind
	// Duration of the source video, 0 when unknown.
	Duration time.Duration
	Sources  []Source
}

// Pipeline captures tiles sequentially. Zero fields select the defaults;
// a negative SettleDelay disables the pause between tiles.
type Pipeline struct {
	FPS              int
	FallbackDuration time.Duration
	SettleDelay      time.Duration
	StillFormat      generator.StillFormat
	JPEGQuality      int
	ArchiveName      string
	FilePrefix       string
	Logger           *slog.Logger

	// Wait pauses between recorded frames and after each tile. Nil sleeps
	// on the wall clock; hosts with their own frame clock can step it here.
	Wait func(ctx context.Context, d time.Duration) error

	now func() time.Time
}

var errNotPainted = errors.New("surface not painted")

func (p Pipeline) withDefaults() Pipeline {
	if p.FPS <= 0 {
		p.FPS = DefaultFPS
	}
	if p.FallbackDuration <= 0 {
		p.FallbackDuration = DefaultFallbackDuration
	}
	switch {
	case p.SettleDelay == 0:
		p.SettleDelay = DefaultSettleDelay
	case p.SettleDelay < 0:
		p.SettleDelay = 0
	}
	if p.StillFormat == "" {
		p.StillFormat = generator.PNG
	}
	if p.JPEGQuality <= 0 {
		p.JPEGQuality = generator.DefaultJPEGQuality
	}
	if p.ArchiveName == "" {
		p.ArchiveName = DefaultArchiveName
	}
	if p.FilePrefix == "" {
		p.FilePrefix = layout.DefaultFilePrefix
	}
	p.Logger = logging.WithComponent(logging.OrDiscard(p.Logger), "export")
	if p.Wait == nil {
		p.Wait = sleep
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Run captures every tile of job in index order and assembles the archive.
// Tiles without a painted surface are skipped; any capture failure aborts
// the whole run and nothing is returned.
func (p Pipeline) Run(ctx context.Context, job Job) (*Archive, error) {
	p = p.withDefaults()
	id := uuid.New()
	log := logging.WithExportID(p.Logger, id.String())
	started := p.now()

	log.Info("export started", "layout", job.Mode, "kind", job.Kind, "tiles", job.Mode.TileCount())

	var entries []Artifact
	for i := 0; i < job.Mode.TileCount(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("export cancelled: %w", err)
		}
		slot := layout.Slot(job.Mode, i)

		var src Source
		if i < len(job.Sources) {
			src = job.Sources[i]
		}
		if src == nil {
			log.Warn("tile skipped", "slot", slot, "reason", "no surface")
			continue
		}

		art, err := p.capture(ctx, job, i, src)
		switch {
		case errors.Is(err, errNotPainted):
			log.Warn("tile skipped", "slot", slot, "reason", err)
			continue
		case ctx.Err() != nil:
			return nil, fmt.Errorf("export cancelled: %w", ctx.Err())
		case err != nil:
			log.Error("tile capture failed", "slot", slot, "error", err)
			return nil, &CaptureError{Tile: i, Slot: slot, Err: err}
		}

		entries = append(entries, art)
		log.Info("tile captured", "file", art.Name, "size", humanize.Bytes(uint64(len(art.Data))))

		if err := p.Wait(ctx, p.SettleDelay); err != nil {
			return nil, fmt.Errorf("export cancelled: %w", err)
		}
	}

	if len(entries) == 0 {
		return nil, &ArchiveError{Name: p.ArchiveName, Err: ErrNoArtifacts}
	}
	data, err := assemble(entries, started)
	if err != nil {
		return nil, &ArchiveError{Name: p.ArchiveName, Err: err}
	}

	log.Info("export finished",
		"archive", p.ArchiveName,
		"files", len(entries),
		"size", humanize.Bytes(uint64(len(data))),
		"elapsed", p.now().Sub(started).Round(time.Millisecond),
	)
	return &Archive{ID: id, Name: p.ArchiveName, Entries: entries, Data: data}, nil
}

func (p Pipeline) capture(ctx context.Context, job Job, i int, src Source) (Artifact, error) {
	if job.Kind == media.Video {
		return p.record(ctx, job, i, src)
	}

	snap, ok := src.Snapshot()
	if !ok {
		return Artifact{}, errNotPainted
	}
	data, err := generator.StillBytes(snap, p.StillFormat)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Name: layout.FileName(p.FilePrefix, job.Mode, i, p.StillFormat.Ext()),
		Data: data,
		Size: snap.Bounds().Size(),
	}, nil
}

// FrameCount returns how many frames a clip of d at fps holds.
func FrameCount(d time.Duration, fps int) int {
	if d <= 0 || fps <= 0 {
		return 1
	}
	n := (int64(d)*int64(fps) + int64(time.Second) - 1) / int64(time.Second)
	return max(int(n), 1)
}

// record samples the surface at the pipeline frame rate for the source
// duration and encodes the samples as a clip.
func (p Pipeline) record(ctx context.Context, job Job, i int, src Source) (Artifact, error) {
	d := job.Duration
	if d <= 0 {
		d = p.FallbackDuration
	}
	frames := FrameCount(d, p.FPS)
	interval := time.Second / time.Duration(p.FPS)

	var enc generator.ClipEncoder = generator.NewAVIEncoder(p.FPS, p.JPEGQuality)
	var size image.Point
	for f := 0; f < frames; f++ {
		if f > 0 {
			if err := p.Wait(ctx, interval); err != nil {
				return Artifact{}, err
			}
		}
		snap, ok := src.Snapshot()
		if !ok {
			return Artifact{}, errNotPainted
		}
		size = snap.Bounds().Size()
		if err := enc.AddFrame(snap); err != nil {
			return Artifact{}, fmt.Errorf("frame %d: %w", f, err)
		}
	}

	var buf bytes.Buffer
	if _, err := enc.WriteTo(&buf); err != nil {
		return Artifact{}, fmt.Errorf("encode clip: %w", err)
	}
	return Artifact{
		Name: layout.FileName(p.FilePrefix, job.Mode, i, "avi"),
		Data: buf.Bytes(),
		Size: size,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
