// Package preview composes the current tile surfaces into one labelled
// sheet laid out the way the showcase places them: tiles left to right at
// their output size.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/xob0t/TileCrop/pkg/generator"
	"github.com/xob0t/TileCrop/pkg/render"
)

const (
	DefaultGap      = 8
	DefaultFontSize = 13
)

// DefaultBackground is the sheet color behind the tiles.
var DefaultBackground = color.RGBA{R: 0x1b, G: 0x28, B: 0x38, A: 0xff}

// Source provides tiles paired with their surfaces from a single read, so
// a concurrent layout change cannot mix old geometry with new surfaces.
// session.Session implements it.
type Source interface {
	View() render.View
}

type Options struct {
	Background color.Color
	LabelColor color.Color
	Gap        int
	Labels     bool
	FontSize   float64
}

// Renderer draws preview sheets.
type Renderer struct {
	fonts *FontManager
	opts  Options
}

func NewRenderer(fonts *FontManager, opts Options) *Renderer {
	if opts.Background == nil {
		opts.Background = DefaultBackground
	}
	if opts.LabelColor == nil {
		opts.LabelColor = color.White
	}
	if opts.Gap < 0 {
		opts.Gap = 0
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize
	}
	return &Renderer{fonts: fonts, opts: opts}
}

// Render draws every tile of src. Tiles that were never painted stay
// empty and are labelled as such.
func (r *Renderer) Render(src Source) (*image.RGBA, error) {
	v := src.View()
	tiles := v.Tiles
	if len(tiles) == 0 {
		return nil, fmt.Errorf("no tiles to preview")
	}

	var face font.Face
	labelH := 0
	if r.opts.Labels {
		if r.fonts == nil {
			return nil, fmt.Errorf("labels need a font manager")
		}
		var err error
		face, err = r.fonts.Face(r.opts.FontSize)
		if err != nil {
			return nil, err
		}
		defer face.Close()
		labelH = int(r.opts.FontSize*1.6) + r.opts.Gap
	}

	gap := r.opts.Gap
	width, height := gap, 0
	for _, t := range tiles {
		width += t.Dst.X + gap
		height = max(height, t.Dst.Y)
	}
	height += 2*gap + labelH

	img := generator.NewSolidImage(width, height, r.opts.Background)

	x := gap
	for i, t := range tiles {
		at := image.Rectangle{Min: image.Pt(x, gap), Max: image.Pt(x+t.Dst.X, gap+t.Dst.Y)}
		label := fmt.Sprintf("%s %dx%d", t.Slot, t.Dst.X, t.Dst.Y)
		if snap, ok := snapshot(v, i); ok {
			draw.Draw(img, at, snap, snap.Bounds().Min, draw.Over)
		} else {
			label = t.Slot + " (empty)"
		}
		if face != nil {
			r.drawString(img, label, x, gap+t.Dst.Y+gap/2+int(r.opts.FontSize), face)
		}
		x += t.Dst.X + gap
	}
	return img, nil
}

// drawString draws text with its baseline at y.
func (r *Renderer) drawString(img *image.RGBA, text string, x, y int, face font.Face) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(r.opts.LabelColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}

func snapshot(v render.View, i int) (*image.RGBA, bool) {
	if i >= len(v.Surfaces) || v.Surfaces[i] == nil {
		return nil, false
	}
	return v.Surfaces[i].Snapshot()
}
