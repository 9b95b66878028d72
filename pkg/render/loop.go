// Package render keeps one pixel surface per tile in sync with the
// current media frame.
package render

import (
	"image"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/xob0t/TileCrop/pkg/layout"
	"github.com/xob0t/TileCrop/pkg/logging"
	"github.com/xob0t/TileCrop/pkg/media"
)

// View is what a tick paints: the current media, its tiles and the
// surfaces they are drawn to. Surfaces[i] belongs to Tiles[i].
type View struct {
	Media    media.Handle
	Tiles    []layout.Tile
	Surfaces []*Surface
}

// Target supplies the view at paint time. The loop never caches it
// between ticks.
type Target interface {
	View() View
}

// Loop paints the target's tiles once per scheduled tick while a video is
// playing, and once per Start for still images.
type Loop struct {
	sched   Scheduler
	target  Target
	painter Painter
	logger  *slog.Logger

	mu      sync.Mutex
	token   Token
	pending bool
	gen     uint64
	ticks   uint64
}

// NewLoop wires a loop. A nil logger discards DrawError reports.
func NewLoop(target Target, sched Scheduler, painter Painter, logger *slog.Logger) *Loop {
	return &Loop{
		sched:   sched,
		target:  target,
		painter: painter,
		logger:  logging.WithComponent(logging.OrDiscard(logger), "render"),
	}
}

// Start cancels any outstanding tick and paints immediately. Callbacks
// scheduled by an earlier Start become no-ops.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked()
	l.gen++
	l.tickLocked(l.gen)
}

// Stop cancels the outstanding tick without painting.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked()
	l.gen++
}

// Pending reports whether a tick is scheduled.
func (l *Loop) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// Ticks returns how many ticks have painted since the loop was created.
func (l *Loop) Ticks() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks
}

func (l *Loop) cancelLocked() {
	if l.pending {
		l.sched.Cancel(l.token)
		l.pending = false
	}
}

func (l *Loop) fire(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return
	}
	l.pending = false
	l.tickLocked(gen)
}

func (l *Loop) tickLocked(gen uint64) {
	v := l.target.View()
	if v.Media == nil || v.Media.State() != media.Ready || len(v.Tiles) == 0 {
		return
	}
	l.ticks++
	l.paint(v)

	p, ok := v.Media.(media.Player)
	if !ok || !p.Playing() || p.Ended() {
		return
	}
	l.token = l.sched.ScheduleNextTick(func() { l.fire(gen) })
	l.pending = true
}

// paint draws every tile of v concurrently; surfaces are independent and
// the frame is only read.
func (l *Loop) paint(v View) {
	frame, ferr := v.Media.Frame()

	var group errgroup.Group
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, tile := range v.Tiles {
		i, tile := i, tile // per-iteration copies (go directive < 1.22)
		if i >= len(v.Surfaces) || v.Surfaces[i] == nil {
			continue
		}
		surface := v.Surfaces[i]
		group.Go(func() error {
			err := ferr
			if err == nil {
				err = surface.Paint(func(dst *image.RGBA) error {
					return l.painter.Paint(dst, frame, tile.Src)
				})
			}
			if err != nil {
				l.logger.Warn("tile paint skipped", "error", &DrawError{Tile: i, Err: err})
			}
			return nil
		})
	}
	group.Wait()
}
