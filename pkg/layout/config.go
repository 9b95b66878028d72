// config.go - Output heights and aspect matching.
package layout

import (
	"fmt"
	"math"
)

// Fallback heights substituted for non-positive configured values.
const (
	DefaultTileHeight = 353
	DefaultRow1Height = 646
	DefaultRowHeight  = 122
)

// Config holds the configured destination heights.
//
// Single and Split use one height per tile. FiveColumn renders every column
// at FiveRowHeight; the Row* fields form the alternate row scheme that only
// MatchAspect writes.
type Config struct {
	SingleHeight     int `yaml:"single" json:"single"`
	SplitMainHeight  int `yaml:"split_main" json:"split_main"`
	SplitRightHeight int `yaml:"split_right" json:"split_right"`
	FiveRowHeight    int `yaml:"five_row" json:"five_row"`

	RowCount   int `yaml:"row_count" json:"row_count"`
	Row1Height int `yaml:"row1" json:"row1"`
	Row2Height int `yaml:"row2" json:"row2"`
	Row3Height int `yaml:"row3" json:"row3"`
}

// DefaultConfig returns the out-of-the-box heights.
func DefaultConfig() Config {
	return Config{
		SingleHeight:     DefaultTileHeight,
		SplitMainHeight:  DefaultTileHeight,
		SplitRightHeight: DefaultTileHeight,
		FiveRowHeight:    DefaultTileHeight,
		RowCount:         1,
		Row1Height:       DefaultRow1Height,
		Row2Height:       DefaultRowHeight,
		Row3Height:       DefaultRowHeight,
	}
}

// Normalize replaces non-positive heights with their defaults and clamps
// RowCount to 1..3.
func (c Config) Normalize() Config {
	fix := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fix(&c.SingleHeight, DefaultTileHeight)
	fix(&c.SplitMainHeight, DefaultTileHeight)
	fix(&c.SplitRightHeight, DefaultTileHeight)
	fix(&c.FiveRowHeight, DefaultTileHeight)
	fix(&c.Row1Height, DefaultRow1Height)
	fix(&c.Row2Height, DefaultRowHeight)
	fix(&c.Row3Height, DefaultRowHeight)
	c.RowCount = min(max(c.RowCount, 1), 3)
	return c
}

// RowHeights returns the heights of the first RowCount rows.
func (c Config) RowHeights() []int {
	c = c.Normalize()
	return []int{c.Row1Height, c.Row2Height, c.Row3Height}[:c.RowCount]
}

// MatchAspect recomputes every configured height from the media's
// height/width ratio and the canonical slot widths. Layout mode and
// RowCount are left untouched. Applying it twice yields the same result.
func MatchAspect(cfg Config, naturalWidth, naturalHeight int) (Config, error) {
	if naturalWidth <= 0 || naturalHeight <= 0 {
		return cfg, fmt.Errorf("match aspect: invalid media size %dx%d", naturalWidth, naturalHeight)
	}
	ratio := float64(naturalHeight) / float64(naturalWidth)

	out := cfg
	out.SingleHeight = scaledHeight(SingleWidth, ratio)
	out.SplitMainHeight = scaledHeight(SplitMainWidth, ratio)
	out.SplitRightHeight = scaledHeight(SplitRightWidth, ratio)
	out.FiveRowHeight = scaledHeight(ColumnWidth, ratio)
	out.Row1Height = out.SingleHeight
	out.Row2Height = scaledHeight(out.SingleHeight, 0.2)
	out.Row3Height = out.Row2Height
	return out.Normalize(), nil
}

// scaledHeight is round(width*ratio), at least 1 pixel so very wide media
// never falls back to the default heights.
func scaledHeight(width int, ratio float64) int {
	return max(1, roundHalfUp(float64(width)*ratio))
}

// roundHalfUp rounds .5 toward +Inf, matching browser Math.round for
// the positive values used here.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
