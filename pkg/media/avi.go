// avi.go - MJPEG AVI reader producing clips.
package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"time"
)

// jpegFrames holds the MJPEG frames of an AVI, decoded on demand.
type jpegFrames [][]byte

func (f jpegFrames) Len() int { return len(f) }

func (f jpegFrames) Decode(i int) (image.Image, error) {
	return jpeg.Decode(bytes.NewReader(f[i]))
}

type aviInfo struct {
	size         image.Point
	usecPerFrame uint32
	scale, rate  uint32
	compression  string
	frames       jpegFrames
}

var errNotAVI = errors.New("not a RIFF/AVI file")

// decodeAVI parses an MJPEG AVI held in memory into a Clip.
func decodeAVI(data []byte, opts ClipOptions) (*Clip, error) {
	info, err := parseAVI(data)
	if err != nil {
		return nil, err
	}
	if c := info.compression; c != "" && !strings.EqualFold(c, "MJPG") {
		return nil, fmt.Errorf("avi codec %q: %w", c, ErrUnsupported)
	}
	if len(info.frames) == 0 {
		return nil, errors.New("avi: no video frames")
	}

	frameDur := time.Duration(info.usecPerFrame) * time.Microsecond
	if info.rate > 0 && info.scale > 0 {
		frameDur = time.Duration(int64(time.Second) * int64(info.scale) / int64(info.rate))
	}
	if frameDur <= 0 {
		frameDur = time.Second / 30
	}

	size := info.size
	if size.X <= 0 || size.Y <= 0 {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(info.frames[0]))
		if err != nil {
			return nil, fmt.Errorf("avi: read frame size: %w", err)
		}
		size = image.Pt(cfg.Width, cfg.Height)
	}

	delays := make([]time.Duration, len(info.frames))
	for i := range delays {
		delays[i] = frameDur
	}
	return newClip(info.frames, delays, size, opts)
}

func parseAVI(data []byte) (*aviInfo, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "AVI " {
		return nil, errNotAVI
	}
	end := min(int(binary.LittleEndian.Uint32(data[4:8]))+8, len(data))

	info := &aviInfo{}
	if err := walkRIFF(data[12:end], info, false); err != nil {
		return nil, err
	}
	return info, nil
}

// walkRIFF visits the chunks in b, descending into LIST chunks.
func walkRIFF(b []byte, info *aviInfo, inMovi bool) error {
	for len(b) >= 8 {
		id := string(b[0:4])
		size := int(binary.LittleEndian.Uint32(b[4:8]))
		if size < 0 || 8+size > len(b) {
			// Truncated trailing chunk: keep what was parsed.
			return nil
		}
		body := b[8 : 8+size]

		switch {
		case id == "LIST" && size >= 4:
			listType := string(body[0:4])
			if err := walkRIFF(body[4:], info, inMovi || listType == "movi"); err != nil {
				return err
			}
		case id == "avih" && size >= 40:
			info.usecPerFrame = binary.LittleEndian.Uint32(body[0:4])
			info.size = image.Pt(int(binary.LittleEndian.Uint32(body[32:36])), int(binary.LittleEndian.Uint32(body[36:40])))
		case id == "strh" && size >= 28 && string(body[0:4]) == "vids":
			info.scale = binary.LittleEndian.Uint32(body[20:24])
			info.rate = binary.LittleEndian.Uint32(body[24:28])
		case id == "strf" && size >= 20 && info.compression == "":
			info.compression = strings.TrimRight(string(body[16:20]), "\x00 ")
		case inMovi && strings.HasSuffix(id, "dc") && size > 0:
			info.frames = append(info.frames, body)
		}

		next := 8 + size + size%2
		if next > len(b) {
			return nil
		}
		b = b[next:]
	}
	return nil
}
