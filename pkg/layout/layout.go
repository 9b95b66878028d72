// Package layout maps a showcase layout and the media's natural size to
// per-tile source rectangles and output sizes.
//
// Everything here is pure: no I/O, no clocks, no shared state.
package layout

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// Mode selects how the source width is partitioned into tiles.
type Mode int

const (
	Single Mode = iota
	Split
	FiveColumn
)

// Canonical destination widths of the showcase slots.
const (
	SingleWidth     = 616
	SplitMainWidth  = 493
	SplitRightWidth = 123
	ColumnWidth     = 123
)

// splitMainRatio is the share of the source width given to the split main tile.
const splitMainRatio = 0.8

var modeNames = map[Mode]string{
	Single:     "single",
	Split:      "split",
	FiveColumn: "five",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// TileCount returns the number of tiles the mode produces, 0 for unknown modes.
func (m Mode) TileCount() int {
	switch m {
	case Single:
		return 1
	case Split:
		return 2
	case FiveColumn:
		return 5
	default:
		return 0
	}
}

// ErrUnknownMode is returned for layout names and values outside Mode.
var ErrUnknownMode = errors.New("unknown layout mode")

// ParseMode accepts "single", "split" and "five" (also "fivecolumn").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "":
		return Single, nil
	case "split":
		return Split, nil
	case "five", "fivecolumn", "five-column":
		return FiveColumn, nil
	default:
		return Single, fmt.Errorf("%w %q: use single, split or five", ErrUnknownMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Tile describes one output region.
type Tile struct {
	Index int
	Slot  string          // artifact base name, e.g. "main" or "row1_col3"
	Src   image.Rectangle // in source pixels
	Dst   image.Point     // output width and height
}

// Compute returns the ordered tiles for mode. It returns nil when either
// natural dimension is not positive or the mode is unknown; callers must
// not render in that case. Non-positive configured heights are replaced
// by their defaults.
func Compute(mode Mode, naturalWidth, naturalHeight int, cfg Config) []Tile {
	if naturalWidth <= 0 || naturalHeight <= 0 {
		return nil
	}
	cfg = cfg.Normalize()
	w, h := naturalWidth, naturalHeight

	switch mode {
	case Single:
		return []Tile{{
			Index: 0,
			Slot:  Slot(mode, 0),
			Src:   image.Rect(0, 0, w, h),
			Dst:   image.Pt(SingleWidth, cfg.SingleHeight),
		}}

	case Split:
		// Flooring the main width leaves any fractional pixel to the right
		// tile, so the two rects always partition [0, w).
		mainW := int(float64(w) * splitMainRatio)
		return []Tile{
			{
				Index: 0,
				Slot:  Slot(mode, 0),
				Src:   image.Rect(0, 0, mainW, h),
				Dst:   image.Pt(SplitMainWidth, cfg.SplitMainHeight),
			},
			{
				Index: 1,
				Slot:  Slot(mode, 1),
				Src:   image.Rect(mainW, 0, w, h),
				Dst:   image.Pt(SplitRightWidth, cfg.SplitRightHeight),
			},
		}

	case FiveColumn:
		// The w%5 remainder is not reassigned; the last column ends short
		// of the right edge.
		slice := w / 5
		tiles := make([]Tile, 5)
		for i := range tiles {
			tiles[i] = Tile{
				Index: i,
				Slot:  Slot(mode, i),
				Src:   image.Rect(i*slice, 0, (i+1)*slice, h),
				Dst:   image.Pt(ColumnWidth, cfg.FiveRowHeight),
			}
		}
		return tiles
	}

	return nil
}

// Slot returns the artifact base name of tile i in mode.
func Slot(mode Mode, i int) string {
	switch {
	case mode == Single && i == 0:
		return "main"
	case mode == Split && i == 0:
		return "main"
	case mode == Split && i == 1:
		return "right"
	case mode == FiveColumn && i >= 0 && i < 5:
		return fmt.Sprintf("row1_col%d", i+1)
	default:
		return fmt.Sprintf("output_%d", i+1)
	}
}

// DefaultFilePrefix prefixes every exported artifact name.
const DefaultFilePrefix = "myworkshop"

// FileName returns the canonical artifact name for tile i, e.g.
// "myworkshop_right.png". Out-of-range tiles get "output_N.ext" without
// the prefix.
func FileName(prefix string, mode Mode, i int, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if i < 0 || i >= mode.TileCount() {
		return fmt.Sprintf("output_%d.%s", i+1, ext)
	}
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	return fmt.Sprintf("%s_%s.%s", prefix, Slot(mode, i), ext)
}
