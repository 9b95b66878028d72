// Package generator encodes tile captures: lossless stills (PNG or BMP)
// and MJPEG clips in an AVI container.
//
// Both paths start from an image.Image; clips are built frame by frame
// and finalized once into a complete file.
package generator

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
)

// StillFormat is a lossless raster format for image captures.
type StillFormat string

const (
	PNG StillFormat = "png"
	BMP StillFormat = "bmp"
)

// ParseStillFormat accepts "png" (default for "") and "bmp".
func ParseStillFormat(s string) (StillFormat, error) {
	switch f := StillFormat(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case "":
		return PNG, nil
	case PNG, BMP:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported still format %q: use png or bmp", s)
	}
}

// Ext returns the file extension without the dot.
func (f StillFormat) Ext() string {
	if f == "" {
		return string(PNG)
	}
	return string(f)
}

// EncodeStill writes img to w in the given format.
func EncodeStill(w io.Writer, img image.Image, format StillFormat) error {
	switch format {
	case PNG, "":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode PNG: %w", err)
		}
	case BMP:
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("encode BMP: %w", err)
		}
	default:
		return fmt.Errorf("unsupported still format %q", format)
	}
	return nil
}

// StillBytes is EncodeStill into a fresh buffer.
func StillBytes(img image.Image, format StillFormat) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeStill(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
