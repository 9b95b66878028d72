package generator

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

func TestEncodeStillPNG(t *testing.T) {
	img := NewSolidImage(7, 3, color.RGBA{R: 255, A: 255})
	data, err := StillBytes(img, PNG)
	if err != nil {
		t.Fatalf("StillBytes: %v", err)
	}
	got, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if got.Bounds() != image.Rect(0, 0, 7, 3) {
		t.Errorf("bounds = %v", got.Bounds())
	}
	if r, _, _, _ := got.At(3, 1).RGBA(); r != 0xffff {
		t.Errorf("pixel red = %#x, want 0xffff", r)
	}
}

func TestEncodeStillBMP(t *testing.T) {
	img := NewSolidImage(5, 5, color.RGBA{B: 200, A: 255})
	data, err := StillBytes(img, BMP)
	if err != nil {
		t.Fatalf("StillBytes: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("BM")) {
		t.Fatalf("missing BMP magic: % x", data[:2])
	}
	got, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("bmp.Decode: %v", err)
	}
	if got.Bounds().Dx() != 5 {
		t.Errorf("width = %d", got.Bounds().Dx())
	}
}

func TestParseStillFormat(t *testing.T) {
	for in, want := range map[string]StillFormat{"": PNG, "png": PNG, ".BMP": BMP} {
		got, err := ParseStillFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseStillFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseStillFormat("jpeg"); err == nil {
		t.Error("jpeg should be rejected as a lossless still format")
	}
}

func TestAVIEncoderHeaders(t *testing.T) {
	enc := NewAVIEncoder(30, 0)
	for i := 0; i < 3; i++ {
		c := color.RGBA{R: uint8(i * 80), G: 10, B: 10, A: 255}
		if err := enc.AddFrame(NewSolidImage(16, 8, c)); err != nil {
			t.Fatalf("AddFrame %d: %v", i, err)
		}
	}
	data, err := enc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "AVI " {
		t.Fatalf("bad RIFF header: %q %q", data[0:4], data[8:12])
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); int(got) != len(data)-8 {
		t.Errorf("RIFF size = %d, want %d", got, len(data)-8)
	}
	if string(data[24:28]) != "avih" {
		t.Fatalf("avih not at offset 24: %q", data[24:28])
	}
	avih := data[32:]
	if got := binary.LittleEndian.Uint32(avih[0:4]); got != 1000000/30 {
		t.Errorf("usec per frame = %d", got)
	}
	if got := binary.LittleEndian.Uint32(avih[16:20]); got != 3 {
		t.Errorf("total frames = %d, want 3", got)
	}
	if w, h := binary.LittleEndian.Uint32(avih[32:36]), binary.LittleEndian.Uint32(avih[36:40]); w != 16 || h != 8 {
		t.Errorf("size = %dx%d, want 16x8", w, h)
	}
	if !bytes.Contains(data, []byte("idx1")) {
		t.Error("missing idx1 index")
	}

	if err := enc.AddFrame(NewSolidImage(16, 8, color.RGBA{})); err == nil {
		t.Error("AddFrame after finalize should fail")
	}
}

func TestAVIEncoderRejectsSizeChange(t *testing.T) {
	enc := NewAVIEncoder(15, 80)
	if err := enc.AddFrame(NewSolidImage(4, 4, color.RGBA{A: 255})); err != nil {
		t.Fatal(err)
	}
	if err := enc.AddFrame(NewSolidImage(5, 4, color.RGBA{A: 255})); err == nil {
		t.Error("expected size mismatch error")
	}
	if enc.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", enc.Frames())
	}
}

func TestAVIEncoderEmpty(t *testing.T) {
	if _, err := NewAVIEncoder(30, 0).Bytes(); err == nil {
		t.Error("expected error for clip without frames")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"", color.RGBA{}},
		{"transparent", color.RGBA{}},
		{"#ff0000", color.RGBA{R: 255, A: 255}},
		{"00ff00", color.RGBA{G: 255, A: 255}},
		{"#0000ff80", color.RGBA{B: 128, A: 128}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"#fff", "#gggggg", "red"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) expected error", bad)
		}
	}
}
