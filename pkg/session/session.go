// Package session ties the loaded media, the layout, the tile surfaces,
// the render loop and the export pipeline together.
package session

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"

	"github.com/xob0t/TileCrop/pkg/export"
	"github.com/xob0t/TileCrop/pkg/layout"
	"github.com/xob0t/TileCrop/pkg/logging"
	"github.com/xob0t/TileCrop/pkg/media"
	"github.com/xob0t/TileCrop/pkg/render"
)

var (
	// ErrExportInProgress rejects loads and layout changes while an export
	// is capturing the current surfaces.
	ErrExportInProgress = errors.New("export in progress")
	ErrNoMedia          = errors.New("no media loaded")
)

// Options configures a Session. Zero values select defaults.
type Options struct {
	Mode   layout.Mode
	Config layout.Config
	// MatchOnLoad recomputes heights from each loaded media's aspect ratio.
	MatchOnLoad bool

	Scheduler render.Scheduler
	Painter   render.Painter
	Pipeline  export.Pipeline
	Logger    *slog.Logger
}

// Session is safe for concurrent use. Lock order is loop, then session:
// the session never calls into the loop while holding its own lock.
type Session struct {
	loop        *render.Loop
	pipeline    export.Pipeline
	logger      *slog.Logger
	matchOnLoad bool

	mu        sync.RWMutex
	media     media.Handle
	mode      layout.Mode
	cfg       layout.Config
	tiles     []layout.Tile
	surfaces  []*render.Surface
	exporting bool
}

func New(opts Options) *Session {
	logger := logging.OrDiscard(opts.Logger)
	sched := opts.Scheduler
	if sched == nil {
		sched = render.NewFrameScheduler(render.DefaultFrameInterval)
	}
	if opts.Pipeline.Logger == nil {
		opts.Pipeline.Logger = logger
	}

	s := &Session{
		pipeline:    opts.Pipeline,
		logger:      logging.WithComponent(logger, "session"),
		matchOnLoad: opts.MatchOnLoad,
		mode:        opts.Mode,
		cfg:         opts.Config.Normalize(),
	}
	s.loop = render.NewLoop(s, sched, opts.Painter, logger)
	return s
}

// View implements render.Target.
func (s *Session) View() render.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return render.View{Media: s.media, Tiles: s.tiles, Surfaces: s.surfaces}
}

// Load replaces the current media. Players are rewound and started. A
// handle in the Failed state is kept, blocks preview and export, and its
// *media.LoadError is returned.
func (s *Session) Load(h media.Handle) error {
	if h == nil {
		return ErrNoMedia
	}

	s.mu.Lock()
	if s.exporting {
		s.mu.Unlock()
		return ErrExportInProgress
	}
	old := s.media
	s.media = h
	if h.State() == media.Failed {
		s.tiles, s.surfaces = nil, nil
		s.mu.Unlock()
		s.loop.Stop()
		stopPlayer(old, h)
		return loadError(h)
	}
	if s.matchOnLoad {
		w, hh := h.Size()
		if cfg, err := layout.MatchAspect(s.cfg, w, hh); err == nil {
			s.cfg = cfg
		}
	}
	s.rebuildLocked()
	s.mu.Unlock()

	stopPlayer(old, h)
	if p, ok := h.(media.Player); ok {
		p.Seek(0)
		p.Play()
	}
	w, hh := h.Size()
	s.logger.Info("media loaded", "kind", h.Kind(), "width", w, "height", hh, "state", h.State())
	s.loop.Start()
	return nil
}

// Refresh rebuilds tiles for the current media, for handles that were
// loaded before their metadata was ready.
func (s *Session) Refresh() error {
	return s.update(func() error { return nil })
}

// SetLayout switches the layout mode.
func (s *Session) SetLayout(mode layout.Mode) error {
	if mode.TileCount() == 0 {
		return layout.ErrUnknownMode
	}
	return s.update(func() error {
		s.mode = mode
		return nil
	})
}

// SetConfig replaces the output heights.
func (s *Session) SetConfig(cfg layout.Config) error {
	return s.update(func() error {
		s.cfg = cfg.Normalize()
		return nil
	})
}

// MatchAspect recomputes every height from the current media's aspect
// ratio and returns the new configuration.
func (s *Session) MatchAspect() (layout.Config, error) {
	var out layout.Config
	err := s.update(func() error {
		if s.media == nil || s.media.State() != media.Ready {
			return ErrNoMedia
		}
		w, h := s.media.Size()
		cfg, err := layout.MatchAspect(s.cfg, w, h)
		if err != nil {
			return err
		}
		s.cfg = cfg
		out = cfg
		return nil
	})
	return out, err
}

// update applies fn under the session lock, rebuilds the tiles and
// restarts the loop.
func (s *Session) update(fn func() error) error {
	s.mu.Lock()
	if s.exporting {
		s.mu.Unlock()
		return ErrExportInProgress
	}
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.rebuildLocked()
	s.mu.Unlock()

	s.loop.Start()
	return nil
}

func (s *Session) rebuildLocked() {
	s.tiles, s.surfaces = nil, nil
	if s.media == nil || s.media.State() != media.Ready {
		return
	}
	w, h := s.media.Size()
	s.tiles = layout.Compute(s.mode, w, h, s.cfg)
	s.surfaces = render.NewSurfaces(s.tiles)
}

func (s *Session) Mode() layout.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Session) Config() layout.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Media returns the current handle, nil before the first Load.
func (s *Session) Media() media.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.media
}

// Tiles returns a copy of the current tile geometry.
func (s *Session) Tiles() []layout.Tile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]layout.Tile(nil), s.tiles...)
}

// Snapshot returns the latest painted content of tile i.
func (s *Session) Snapshot(i int) (*image.RGBA, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.surfaces) || s.surfaces[i] == nil {
		return nil, false
	}
	return s.surfaces[i].Snapshot()
}

// Exporting reports whether an export is running.
func (s *Session) Exporting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exporting
}

// Export captures every tile with the session pipeline. Only one export
// runs at a time; loads and layout changes are rejected until it returns.
func (s *Session) Export(ctx context.Context) (*export.Archive, error) {
	s.mu.Lock()
	if s.exporting {
		s.mu.Unlock()
		return nil, ErrExportInProgress
	}
	if s.media == nil || s.media.State() != media.Ready {
		s.mu.Unlock()
		return nil, ErrNoMedia
	}
	job := export.Job{Mode: s.mode, Kind: s.media.Kind()}
	for _, surf := range s.surfaces {
		if surf == nil {
			job.Sources = append(job.Sources, nil)
			continue
		}
		job.Sources = append(job.Sources, surf)
	}
	p, isPlayer := s.media.(media.Player)
	s.exporting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.exporting = false
		s.mu.Unlock()
	}()

	if isPlayer {
		job.Duration = p.Duration()
		if !p.Playing() {
			p.Play()
			s.loop.Start()
		}
	}
	return s.pipeline.Run(ctx, job)
}

// Close stops the render loop and pauses playback.
func (s *Session) Close() {
	s.loop.Stop()
	s.mu.RLock()
	h := s.media
	s.mu.RUnlock()
	if p, ok := h.(media.Player); ok {
		p.Pause()
	}
}

func stopPlayer(old, next media.Handle) {
	if old == nil || old == next {
		return
	}
	if p, ok := old.(media.Player); ok {
		p.Pause()
	}
}

func loadError(h media.Handle) error {
	err := h.Err()
	var le *media.LoadError
	if errors.As(err, &le) {
		return le
	}
	if err == nil {
		err = errors.New("media failed to load")
	}
	return &media.LoadError{Err: err}
}
