// surface.go - Double-buffered tile pixel surfaces.
package render

import (
	"image"
	"sync"

	"github.com/xob0t/TileCrop/pkg/layout"
)

// Surface is the rendered pixel buffer of one tile. Painting happens on a
// back buffer that is swapped in only once complete, so Snapshot never
// observes a half-painted frame and never blocks the painter for longer
// than the swap.
type Surface struct {
	size image.Point

	paintMu sync.Mutex // serializes painters
	back    *image.RGBA

	mu      sync.RWMutex
	front   *image.RGBA
	painted uint64
}

// NewSurface allocates a surface of the given output size.
func NewSurface(size image.Point) *Surface {
	r := image.Rectangle{Max: size}
	return &Surface{
		size:  size,
		back:  image.NewRGBA(r),
		front: image.NewRGBA(r),
	}
}

// NewSurfaces allocates one surface per tile, sized to the tile's Dst.
func NewSurfaces(tiles []layout.Tile) []*Surface {
	out := make([]*Surface, len(tiles))
	for i, t := range tiles {
		out[i] = NewSurface(t.Dst)
	}
	return out
}

func (s *Surface) Size() image.Point { return s.size }

// Paint runs fn against the back buffer and publishes it if fn succeeds.
func (s *Surface) Paint(fn func(dst *image.RGBA) error) error {
	s.paintMu.Lock()
	defer s.paintMu.Unlock()

	if err := fn(s.back); err != nil {
		return err
	}

	s.mu.Lock()
	s.front, s.back = s.back, s.front
	s.painted++
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the most recently completed paint, or false
// if the surface was never painted.
func (s *Surface) Snapshot() (*image.RGBA, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.painted == 0 {
		return nil, false
	}
	img := image.NewRGBA(s.front.Rect)
	copy(img.Pix, s.front.Pix)
	return img, true
}

// PaintCount returns how many paints have been published.
func (s *Surface) PaintCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.painted
}
