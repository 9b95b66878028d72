package layout

import (
	"image"
	"testing"
)

func TestComputeSingle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SingleHeight = 300

	tiles := Compute(Single, 1000, 500, cfg)
	if len(tiles) != 1 {
		t.Fatalf("len(tiles) = %d, want 1", len(tiles))
	}
	got := tiles[0]
	if got.Src != image.Rect(0, 0, 1000, 500) {
		t.Errorf("Src = %v, want full media", got.Src)
	}
	if got.Dst != image.Pt(616, 300) {
		t.Errorf("Dst = %v, want (616,300)", got.Dst)
	}
	if got.Slot != "main" {
		t.Errorf("Slot = %q, want main", got.Slot)
	}
}

func TestComputeSplitPartitionsWidth(t *testing.T) {
	for _, w := range []int{1, 2, 3, 4, 5, 7, 99, 100, 101, 1001, 1919, 1920, 3841} {
		tiles := Compute(Split, w, 240, DefaultConfig())
		if len(tiles) != 2 {
			t.Fatalf("w=%d: len(tiles) = %d, want 2", w, len(tiles))
		}
		mainR, rightR := tiles[0].Src, tiles[1].Src
		if mainR.Min.X != 0 {
			t.Errorf("w=%d: main starts at %d", w, mainR.Min.X)
		}
		if mainR.Max.X != rightR.Min.X {
			t.Errorf("w=%d: gap or overlap between %v and %v", w, mainR, rightR)
		}
		if mainR.Dx()+rightR.Dx() != w {
			t.Errorf("w=%d: widths %d+%d != %d", w, mainR.Dx(), rightR.Dx(), w)
		}
		if wantMain := int(float64(w) * 0.8); mainR.Dx() != wantMain {
			t.Errorf("w=%d: main width = %d, want %d", w, mainR.Dx(), wantMain)
		}
	}
}

func TestComputeSplitSizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SplitMainHeight = 400
	cfg.SplitRightHeight = 100

	tiles := Compute(Split, 1000, 500, cfg)
	if tiles[0].Dst != image.Pt(493, 400) {
		t.Errorf("main Dst = %v", tiles[0].Dst)
	}
	if tiles[1].Dst != image.Pt(123, 100) {
		t.Errorf("right Dst = %v", tiles[1].Dst)
	}
	if tiles[0].Slot != "main" || tiles[1].Slot != "right" {
		t.Errorf("slots = %q, %q", tiles[0].Slot, tiles[1].Slot)
	}
}

func TestComputeFiveColumnDropsRemainder(t *testing.T) {
	for _, w := range []int{5, 6, 9, 10, 1000, 1003, 1919} {
		tiles := Compute(FiveColumn, w, 100, DefaultConfig())
		if len(tiles) != 5 {
			t.Fatalf("w=%d: len(tiles) = %d, want 5", w, len(tiles))
		}
		sum := 0
		for i, tile := range tiles {
			if tile.Src.Min.X != i*(w/5) {
				t.Errorf("w=%d tile %d: x = %d, want %d", w, i, tile.Src.Min.X, i*(w/5))
			}
			if i > 0 && tiles[i-1].Src.Max.X != tile.Src.Min.X {
				t.Errorf("w=%d: gap before tile %d", w, i)
			}
			if tile.Dst.X != 123 {
				t.Errorf("w=%d tile %d: dst width = %d", w, i, tile.Dst.X)
			}
			sum += tile.Src.Dx()
		}
		if sum > w {
			t.Errorf("w=%d: widths sum %d exceeds width", w, sum)
		}
		if sum != w-w%5 {
			t.Errorf("w=%d: widths sum %d, want %d", w, sum, w-w%5)
		}
	}
}

func TestComputeInvalidDimensions(t *testing.T) {
	cases := []struct{ w, h int }{{0, 10}, {10, 0}, {-1, 10}, {10, -5}}
	for _, c := range cases {
		for _, m := range []Mode{Single, Split, FiveColumn} {
			if tiles := Compute(m, c.w, c.h, DefaultConfig()); tiles != nil {
				t.Errorf("Compute(%v, %d, %d) = %v, want nil", m, c.w, c.h, tiles)
			}
		}
	}
	if tiles := Compute(Mode(42), 100, 100, DefaultConfig()); tiles != nil {
		t.Errorf("unknown mode produced %v", tiles)
	}
}

func TestComputeSubstitutesNonPositiveHeights(t *testing.T) {
	cfg := Config{SingleHeight: 0, SplitMainHeight: -4, SplitRightHeight: 0, FiveRowHeight: -1}

	if got := Compute(Single, 100, 100, cfg)[0].Dst.Y; got != DefaultTileHeight {
		t.Errorf("single height = %d, want %d", got, DefaultTileHeight)
	}
	split := Compute(Split, 100, 100, cfg)
	if split[0].Dst.Y != DefaultTileHeight || split[1].Dst.Y != DefaultTileHeight {
		t.Errorf("split heights = %d,%d", split[0].Dst.Y, split[1].Dst.Y)
	}
	if got := Compute(FiveColumn, 100, 100, cfg)[4].Dst.Y; got != DefaultTileHeight {
		t.Errorf("five height = %d, want %d", got, DefaultTileHeight)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		mode Mode
		i    int
		ext  string
		want string
	}{
		{Single, 0, "png", "myworkshop_main.png"},
		{Split, 0, "png", "myworkshop_main.png"},
		{Split, 1, ".avi", "myworkshop_right.avi"},
		{FiveColumn, 0, "png", "myworkshop_row1_col1.png"},
		{FiveColumn, 4, "avi", "myworkshop_row1_col5.avi"},
		{Single, 3, "png", "output_4.png"},
	}
	for _, tt := range tests {
		if got := FileName("", tt.mode, tt.i, tt.ext); got != tt.want {
			t.Errorf("FileName(%v, %d, %q) = %q, want %q", tt.mode, tt.i, tt.ext, got, tt.want)
		}
	}
	if got := FileName("shop", Split, 1, "png"); got != "shop_right.png" {
		t.Errorf("custom prefix = %q", got)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"single": Single, "SPLIT": Split, "five": FiveColumn, " fivecolumn ": FiveColumn} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("grid"); err == nil {
		t.Error("ParseMode(grid) expected error")
	}

	var m Mode
	if err := m.UnmarshalText([]byte("split")); err != nil || m != Split {
		t.Errorf("UnmarshalText = %v, %v", m, err)
	}
}
