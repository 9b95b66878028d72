package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xob0t/TileCrop/pkg/generator"
	"github.com/xob0t/TileCrop/pkg/layout"
	"github.com/xob0t/TileCrop/pkg/media"
)

type stubSource struct {
	img   *image.RGBA
	calls int
	// grow makes every later snapshot one pixel wider.
	grow bool
}

func (s *stubSource) Snapshot() (*image.RGBA, bool) {
	if s.img == nil {
		return nil, false
	}
	s.calls++
	if s.grow && s.calls > 1 {
		b := s.img.Bounds()
		return image.NewRGBA(image.Rect(0, 0, b.Dx()+s.calls, b.Dy())), true
	}
	return s.img, true
}

func painted(w, h int) *stubSource {
	return &stubSource{img: generator.NewSolidImage(w, h, color.RGBA{R: 200, A: 255})}
}

type waitLog struct{ waits []time.Duration }

func (w *waitLog) wait(ctx context.Context, d time.Duration) error {
	w.waits = append(w.waits, d)
	return ctx.Err()
}

func testPipeline() (Pipeline, *waitLog) {
	wl := &waitLog{}
	return Pipeline{Wait: wl.wait}, wl
}

func TestRunSingleImage(t *testing.T) {
	p, wl := testPipeline()
	archive, err := p.Run(context.Background(), Job{
		Mode:    layout.Single,
		Kind:    media.Image,
		Sources: []Source{painted(layout.SingleWidth, 353)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if archive.Name != DefaultArchiveName {
		t.Errorf("Name = %q", archive.Name)
	}
	if len(archive.Entries) != 1 || archive.Entries[0].Name != "myworkshop_main.png" {
		t.Fatalf("Entries = %+v", archive.Entries)
	}
	if len(wl.waits) != 1 || wl.waits[0] != DefaultSettleDelay {
		t.Errorf("waits = %v, want one settle delay", wl.waits)
	}

	entries, err := ReadArchive(bytes.NewReader(archive.Data), int64(len(archive.Data)))
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "myworkshop_main.png" {
		t.Fatalf("archive lists %+v", entries)
	}

	data, err := Open(bytes.NewReader(archive.Data), int64(len(archive.Data)), "myworkshop_main.png")
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored file is not a PNG: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(layout.SingleWidth, 353) {
		t.Errorf("PNG size = %v", got)
	}
}

func TestRunSkipsMissingSurface(t *testing.T) {
	p, _ := testPipeline()
	archive, err := p.Run(context.Background(), Job{
		Mode:    layout.Split,
		Kind:    media.Image,
		Sources: []Source{&stubSource{}, painted(123, 353)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(archive.Entries) != 1 || archive.Entries[0].Name != "myworkshop_right.png" {
		t.Errorf("Entries = %+v", archive.Entries)
	}

	archive, err = p.Run(context.Background(), Job{
		Mode:    layout.FiveColumn,
		Kind:    media.Image,
		Sources: []Source{painted(123, 353), nil, painted(123, 353)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var names []string
	for _, e := range archive.Entries {
		names = append(names, e.Name)
	}
	if len(names) != 2 || names[0] != "myworkshop_row1_col1.png" || names[1] != "myworkshop_row1_col3.png" {
		t.Errorf("names = %v", names)
	}
}

func TestRunAbortsOnCaptureError(t *testing.T) {
	p, _ := testPipeline()
	sources := []Source{
		painted(123, 10),
		painted(123, 10),
		&stubSource{img: image.NewRGBA(image.Rectangle{})},
		painted(123, 10),
		painted(123, 10),
	}

	archive, err := p.Run(context.Background(), Job{Mode: layout.FiveColumn, Kind: media.Image, Sources: sources})
	if archive != nil {
		t.Error("archive returned despite capture failure")
	}
	var ce *CaptureError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *CaptureError", err)
	}
	if ce.Tile != 2 || ce.Slot != "row1_col3" {
		t.Errorf("CaptureError = %+v", ce)
	}
	if sources[3].(*stubSource).calls != 0 {
		t.Error("capture continued after failure")
	}
}

func TestRunNothingCaptured(t *testing.T) {
	p, _ := testPipeline()
	_, err := p.Run(context.Background(), Job{Mode: layout.Split, Kind: media.Image})
	var ae *ArchiveError
	if !errors.As(err, &ae) || !errors.Is(err, ErrNoArtifacts) {
		t.Fatalf("err = %v, want ArchiveError wrapping ErrNoArtifacts", err)
	}
}

func TestRunStillFormatBMP(t *testing.T) {
	p, _ := testPipeline()
	p.StillFormat = generator.BMP
	p.FilePrefix = "shop"
	archive, err := p.Run(context.Background(), Job{
		Mode:    layout.Single,
		Kind:    media.Image,
		Sources: []Source{painted(8, 4)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := archive.Entries[0].Name; got != "shop_main.bmp" {
		t.Errorf("name = %q", got)
	}
	if data := archive.Entries[0].Data; len(data) < 2 || string(data[:2]) != "BM" {
		t.Error("entry is not a BMP")
	}
}

func TestRunRecordsVideo(t *testing.T) {
	p, wl := testPipeline()
	src := painted(16, 8)
	archive, err := p.Run(context.Background(), Job{
		Mode:     layout.Single,
		Kind:     media.Video,
		Duration: 100 * time.Millisecond,
		Sources:  []Source{src},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entry := archive.Entries[0]
	if entry.Name != "myworkshop_main.avi" {
		t.Errorf("name = %q", entry.Name)
	}
	if src.calls != 3 {
		t.Errorf("snapshots = %d, want 3", src.calls)
	}
	frame := time.Second / DefaultFPS
	want := []time.Duration{frame, frame, DefaultSettleDelay}
	if len(wl.waits) != len(want) {
		t.Fatalf("waits = %v, want %v", wl.waits, want)
	}
	for i := range want {
		if wl.waits[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, wl.waits[i], want[i])
		}
	}

	h, err := media.Decode(context.Background(), entry.Data, entry.Name, media.Options{})
	if err != nil {
		t.Fatalf("recorded clip does not decode: %v", err)
	}
	clip, ok := h.(*media.Clip)
	if !ok {
		t.Fatalf("handle = %T", h)
	}
	if clip.FrameCount() != 3 {
		t.Errorf("FrameCount = %d, want 3", clip.FrameCount())
	}
	if w, hh := clip.Size(); w != 16 || hh != 8 {
		t.Errorf("clip size = %dx%d", w, hh)
	}
}

func TestRunVideoFallbackDuration(t *testing.T) {
	p, _ := testPipeline()
	p.FPS = 10
	p.FallbackDuration = 200 * time.Millisecond
	src := painted(4, 4)
	if _, err := p.Run(context.Background(), Job{Mode: layout.Single, Kind: media.Video, Sources: []Source{src}}); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("snapshots = %d, want 2", src.calls)
	}
}

func TestRunVideoFrameSizeChangeAborts(t *testing.T) {
	p, _ := testPipeline()
	src := painted(4, 4)
	src.grow = true
	_, err := p.Run(context.Background(), Job{
		Mode:     layout.Single,
		Kind:     media.Video,
		Duration: time.Second,
		Sources:  []Source{src},
	})
	var ce *CaptureError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *CaptureError", err)
	}
}

func TestRunCancelled(t *testing.T) {
	p, _ := testPipeline()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, Job{Mode: layout.Single, Kind: media.Image, Sources: []Source{painted(4, 4)}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		d    time.Duration
		fps  int
		want int
	}{
		{5 * time.Second, 30, 150},
		{100 * time.Millisecond, 30, 3},
		{1500 * time.Millisecond, 30, 45},
		{10 * time.Millisecond, 30, 1},
		{0, 30, 1},
	}
	for _, tt := range tests {
		if got := FrameCount(tt.d, tt.fps); got != tt.want {
			t.Errorf("FrameCount(%v, %d) = %d, want %d", tt.d, tt.fps, got, tt.want)
		}
	}
}

func TestDeliver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	a := &Archive{Name: DefaultArchiveName, Data: []byte("PK")}
	if err := Deliver(DirSaver{Dir: dir}, a); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, DefaultArchiveName))
	if err != nil || string(got) != "PK" {
		t.Errorf("saved %q, %v", got, err)
	}

	var ae *ArchiveError
	if err := Deliver(DirSaver{Dir: dir}, nil); !errors.As(err, &ae) {
		t.Errorf("Deliver(nil) = %v, want *ArchiveError", err)
	}
	boom := errors.New("disk full")
	err = Deliver(SaverFunc(func(string, []byte) error { return boom }), a)
	if !errors.As(err, &ae) || !errors.Is(err, boom) {
		t.Errorf("Deliver = %v, want ArchiveError wrapping cause", err)
	}
}
