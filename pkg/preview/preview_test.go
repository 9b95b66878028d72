package preview

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/xob0t/TileCrop/pkg/generator"
	"github.com/xob0t/TileCrop/pkg/layout"
	"github.com/xob0t/TileCrop/pkg/render"
)

var (
	bg    = color.RGBA{A: 255}
	green = color.RGBA{G: 255, A: 255}
)

type stubSource struct {
	view  render.View
	reads int
}

func (s *stubSource) View() render.View {
	s.reads++
	return s.view
}

// splitSource has a painted main tile and an unpainted right tile.
func splitSource(t *testing.T) *stubSource {
	t.Helper()
	tiles := layout.Compute(layout.Split, 100, 50, layout.Config{SplitMainHeight: 40, SplitRightHeight: 20})
	surfaces := render.NewSurfaces(tiles)
	err := surfaces[0].Paint(func(dst *image.RGBA) error {
		copy(dst.Pix, generator.NewSolidImage(tiles[0].Dst.X, tiles[0].Dst.Y, green).Pix)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return &stubSource{view: render.View{Tiles: tiles, Surfaces: surfaces}}
}

func TestRenderLayout(t *testing.T) {
	r := NewRenderer(nil, Options{Background: bg, Gap: 10})
	src := splitSource(t)
	img, err := r.Render(src)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if src.reads != 1 {
		t.Errorf("View read %d times, want tiles and surfaces from one read", src.reads)
	}
	wantW := 10 + layout.SplitMainWidth + 10 + layout.SplitRightWidth + 10
	if got := img.Bounds().Size(); got != image.Pt(wantW, 40+20) {
		t.Errorf("sheet size = %v, want %dx60", got, wantW)
	}
	if got := img.RGBAAt(15, 15); got != green {
		t.Errorf("main tile pixel = %v, want green", got)
	}
	if got := img.RGBAAt(5, 5); got != bg {
		t.Errorf("gap pixel = %v, want background", got)
	}
	// The unpainted right tile stays background.
	if got := img.RGBAAt(10+layout.SplitMainWidth+10+5, 15); got != bg {
		t.Errorf("empty tile pixel = %v, want background", got)
	}
}

func TestRenderLabels(t *testing.T) {
	fonts, err := NewFontManager("", nil)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRenderer(fonts, Options{Background: bg, Gap: 10, Labels: true, FontSize: 12})
	img, err := r.Render(splitSource(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dy() <= 60 {
		t.Fatalf("labelled sheet height = %d, want room for labels", img.Bounds().Dy())
	}

	inked := false
	for y := 10 + 40; y < img.Bounds().Dy() && !inked; y++ {
		for x := 10; x < 10+layout.SplitMainWidth; x++ {
			if img.RGBAAt(x, y) != bg {
				inked = true
				break
			}
		}
	}
	if !inked {
		t.Error("no label drawn under the main tile")
	}
}

func TestRenderNoTiles(t *testing.T) {
	if _, err := NewRenderer(nil, Options{}).Render(&stubSource{}); err == nil {
		t.Error("expected error for empty source")
	}
}

func TestRenderSurfaceMissing(t *testing.T) {
	src := splitSource(t)
	src.view.Surfaces = src.view.Surfaces[:1]
	img, err := NewRenderer(nil, Options{Background: bg, Gap: 10}).Render(src)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := img.RGBAAt(10+layout.SplitMainWidth+10+5, 15); got != bg {
		t.Errorf("tile without surface = %v, want background", got)
	}
}

func TestFontManagerFallsBack(t *testing.T) {
	fm, err := NewFontManager(filepath.Join(t.TempDir(), "missing.ttf"), nil)
	if err != nil {
		t.Fatalf("NewFontManager: %v", err)
	}
	face, err := fm.Face(16)
	if err != nil {
		t.Fatal(err)
	}
	defer face.Close()
	if face.Metrics().Height <= 0 {
		t.Error("fallback face has no height")
	}
}
