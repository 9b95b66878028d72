// gif.go - Animated GIF decoding into clips.
package media

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"
	"time"
)

// minGIFDelay replaces zero or near-zero frame delays, as browsers do.
const minGIFDelay = 100 * time.Millisecond

type rgbaFrames []*image.RGBA

func (f rgbaFrames) Len() int                          { return len(f) }
func (f rgbaFrames) Decode(i int) (image.Image, error) { return f[i], nil }

// decodeGIF returns a Still for single-frame GIFs and a Clip otherwise.
func decodeGIF(r io.Reader, opts ClipOptions) (Handle, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("decode gif: no frames")
	}
	if len(g.Image) == 1 {
		return NewStill(g.Image[0]), nil
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		for _, p := range g.Image {
			bounds = bounds.Union(p.Bounds())
		}
	}

	frames, delays := composeGIF(g, bounds)
	return newClip(frames, delays, bounds.Size(), opts)
}

// composeGIF renders each GIF frame onto a persistent canvas, honoring
// the per-frame disposal method.
func composeGIF(g *gif.GIF, bounds image.Rectangle) (rgbaFrames, []time.Duration) {
	canvas := image.NewRGBA(bounds)
	frames := make(rgbaFrames, len(g.Image))
	delays := make([]time.Duration, len(g.Image))

	for i, p := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}

		var saved *image.RGBA
		if disposal == gif.DisposalPrevious {
			saved = cloneRGBA(canvas)
		}

		draw.Draw(canvas, p.Bounds(), p, p.Bounds().Min, draw.Over)
		frames[i] = cloneRGBA(canvas)

		delays[i] = minGIFDelay
		if i < len(g.Delay) && g.Delay[i] > 1 {
			delays[i] = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, p.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}
	return frames, delays
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
