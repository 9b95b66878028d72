// avi.go - MJPEG clip encoder in a RIFF/AVI container.
// Each frame is stored as one JPEG in a "00dc" chunk, followed by an idx1
// index marking every frame as a keyframe.
package generator

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

// DefaultJPEGQuality is used when the encoder is created with quality <= 0.
const DefaultJPEGQuality = 90

// AVIEncoder builds an MJPEG AVI clip in memory.
type AVIEncoder struct {
	fps     int
	quality int
	size    image.Point
	frames  [][]byte
	maxSize uint32
	done    bool
}

// NewAVIEncoder creates an encoder for the given frame rate. All frames
// must share the bounds of the first one.
func NewAVIEncoder(fps, quality int) *AVIEncoder {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &AVIEncoder{fps: max(fps, 1), quality: quality}
}

// Frames returns the number of frames added so far.
func (e *AVIEncoder) Frames() int { return len(e.frames) }

// AddFrame JPEG-encodes img and appends it to the clip.
func (e *AVIEncoder) AddFrame(img image.Image) error {
	if e.done {
		return errors.New("avi: frame added after finalize")
	}
	size := img.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("avi: empty frame %v", size)
	}
	if len(e.frames) == 0 {
		e.size = size
	} else if size != e.size {
		return fmt.Errorf("avi: frame size %v differs from clip size %v", size, e.size)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return fmt.Errorf("avi: encode JPEG: %w", err)
	}
	data := buf.Bytes()
	e.frames = append(e.frames, data)
	e.maxSize = max(e.maxSize, uint32(len(data)))
	return nil
}

// Bytes finalizes the clip and returns the encoded file.
func (e *AVIEncoder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo finalizes the clip and writes the complete AVI file to w.
func (e *AVIEncoder) WriteTo(w io.Writer) (int64, error) {
	if len(e.frames) == 0 {
		return 0, errors.New("avi: no frames")
	}
	e.done = true

	total := uint32(len(e.frames))
	width, height := uint32(e.size.X), uint32(e.size.Y)
	fps := uint32(e.fps)

	moviSize := uint32(4)
	for _, f := range e.frames {
		moviSize += 8 + padded(uint32(len(f)))
	}
	idx1Size := 8 + total*16

	// hdrl = "hdrl" + avih(8+56) + strl LIST(8+116)
	hdrlSize := uint32(4 + 64 + 124)
	fileSize := 4 + (8 + hdrlSize) + (8 + moviSize) + idx1Size

	aw := &riffWriter{w: w}

	aw.fourCC("RIFF")
	aw.u32(fileSize)
	aw.fourCC("AVI ")

	aw.fourCC("LIST")
	aw.u32(hdrlSize)
	aw.fourCC("hdrl")

	// avih
	aw.fourCC("avih")
	aw.u32(56)
	aw.u32(1000000 / fps) // microseconds per frame
	aw.u32(e.maxSize * fps)
	aw.u32(0)    // padding granularity
	aw.u32(0x10) // AVIF_HASINDEX
	aw.u32(total)
	aw.u32(0) // initial frames
	aw.u32(1) // streams
	aw.u32(e.maxSize)
	aw.u32(width)
	aw.u32(height)
	aw.u32(0)
	aw.u32(0)
	aw.u32(0)
	aw.u32(0)

	aw.fourCC("LIST")
	aw.u32(116)
	aw.fourCC("strl")

	// strh
	aw.fourCC("strh")
	aw.u32(56)
	aw.fourCC("vids")
	aw.fourCC("MJPG")
	aw.u32(0) // flags
	aw.u16(0) // priority
	aw.u16(0) // language
	aw.u32(0) // initial frames
	aw.u32(1) // scale
	aw.u32(fps)
	aw.u32(0) // start
	aw.u32(total)
	aw.u32(e.maxSize)
	aw.u32(0) // quality
	aw.u32(0) // sample size
	aw.u16(0)
	aw.u16(0)
	aw.u16(uint16(width))
	aw.u16(uint16(height))

	// strf: BITMAPINFOHEADER
	aw.fourCC("strf")
	aw.u32(40)
	aw.u32(40)
	aw.u32(width)
	aw.u32(height)
	aw.u16(1)
	aw.u16(24)
	aw.fourCC("MJPG")
	aw.u32(width * height * 3)
	aw.u32(0)
	aw.u32(0)
	aw.u32(0)
	aw.u32(0)

	aw.fourCC("LIST")
	aw.u32(moviSize)
	aw.fourCC("movi")
	for _, f := range e.frames {
		aw.fourCC("00dc")
		aw.u32(uint32(len(f)))
		aw.bytes(f)
		if len(f)%2 != 0 {
			aw.bytes([]byte{0})
		}
	}

	aw.fourCC("idx1")
	aw.u32(total * 16)
	offset := uint32(4) // relative to the "movi" fourcc
	for _, f := range e.frames {
		aw.fourCC("00dc")
		aw.u32(0x10) // AVIIF_KEYFRAME
		aw.u32(offset)
		aw.u32(uint32(len(f)))
		offset += 8 + padded(uint32(len(f)))
	}

	return aw.n, aw.err
}

func padded(n uint32) uint32 {
	return n + n%2
}

// riffWriter remembers the first write error so header emission reads
// as a flat sequence.
type riffWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (r *riffWriter) bytes(b []byte) {
	if r.err != nil {
		return
	}
	n, err := r.w.Write(b)
	r.n += int64(n)
	r.err = err
}

func (r *riffWriter) fourCC(s string) { r.bytes([]byte(s)) }

func (r *riffWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	r.bytes(b[:])
}

func (r *riffWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	r.bytes(b[:])
}
