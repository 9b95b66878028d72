// still.go - Still image handles.
package media

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Still is a decoded single-frame image.
type Still struct {
	img image.Image
}

// NewStill wraps an already decoded image.
func NewStill(img image.Image) *Still {
	return &Still{img: img}
}

func (s *Still) Kind() Kind   { return Image }
func (s *Still) State() State { return Ready }
func (s *Still) Err() error   { return nil }
func (s *Still) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Frame always returns the same image.
func (s *Still) Frame() (image.Image, error) { return s.img, nil }

// decodeStill decodes PNG, JPEG, GIF (first frame), WebP or BMP.
func decodeStill(r io.Reader) (*Still, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if err == image.ErrFormat {
			return nil, ErrUnsupported
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decode %s: empty image", format)
	}
	return NewStill(img), nil
}
