// interface.go - Encoder interface shared by clip formats.
package generator

import (
	"image"
	"io"
)

// ClipEncoder accumulates frames of a fixed size and writes the finished
// clip once. AddFrame after WriteTo is an error.
type ClipEncoder interface {
	AddFrame(img image.Image) error
	Frames() int
	WriteTo(w io.Writer) (int64, error)
}

var _ ClipEncoder = (*AVIEncoder)(nil)
