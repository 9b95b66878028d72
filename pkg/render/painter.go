// painter.go - Scaled copy of a source rectangle onto a tile surface.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Filter names a scaling kernel.
type Filter string

const (
	Nearest    Filter = "nearest"
	Bilinear   Filter = "bilinear"
	CatmullRom Filter = "catmullrom"
)

// ParseFilter accepts the Filter names; "" selects Bilinear.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Bilinear, nil
	case Nearest, Bilinear, CatmullRom:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q: use nearest, bilinear or catmullrom", s)
	}
}

func (f Filter) interpolator() xdraw.Interpolator {
	switch f {
	case Nearest:
		return xdraw.NearestNeighbor
	case CatmullRom:
		return xdraw.CatmullRom
	default:
		return xdraw.ApproxBiLinear
	}
}

// DrawError reports a failed paint of one tile. The loop logs it and
// skips that tile for the frame.
type DrawError struct {
	Tile int
	Err  error
}

func (e *DrawError) Error() string {
	return fmt.Sprintf("draw tile %d: %v", e.Tile, e.Err)
}

func (e *DrawError) Unwrap() error { return e.Err }

// Painter copies a source rectangle of a frame into a whole surface.
type Painter struct {
	scaler xdraw.Interpolator
	bg     image.Image
}

// NewPainter returns a painter using filter and clearing each surface to
// bg before drawing (transparent when nil).
func NewPainter(filter Filter, bg color.Color) Painter {
	if bg == nil {
		bg = color.Transparent
	}
	return Painter{scaler: filter.interpolator(), bg: image.NewUniform(bg)}
}

// Paint clears dst and scales src (in frame-relative pixels) onto it.
func (p Painter) Paint(dst *image.RGBA, frame image.Image, src image.Rectangle) error {
	if frame == nil {
		return errors.New("no frame")
	}
	fb := frame.Bounds()
	sr := src.Add(fb.Min).Intersect(fb)
	if sr.Empty() {
		return fmt.Errorf("source rect %v outside frame %v", src, fb)
	}
	if p.scaler == nil {
		p = NewPainter(Bilinear, nil)
	}

	xdraw.Draw(dst, dst.Bounds(), p.bg, image.Point{}, xdraw.Src)
	p.scaler.Scale(dst, dst.Bounds(), frame, sr, xdraw.Over, nil)
	return nil
}
