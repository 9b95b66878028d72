// ffmpeg.go - Transcodes other video containers to MJPEG AVI with ffmpeg.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultFFmpeg is the binary looked up on PATH when none is configured.
const DefaultFFmpeg = "ffmpeg"

// ErrNoTranscoder means a container needs ffmpeg but none is available.
var ErrNoTranscoder = errors.New("ffmpeg not found")

// transcodeToMJPEG re-encodes the video in data to an MJPEG AVI with the
// audio track dropped, using the ffmpeg binary at bin.
func transcodeToMJPEG(ctx context.Context, bin string, data []byte, name string) ([]byte, error) {
	if bin == "" {
		bin = DefaultFFmpeg
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTranscoder, err)
	}

	dir, err := os.MkdirTemp("", "tilecrop-transcode-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input"+strings.ToLower(filepath.Ext(name)))
	out := filepath.Join(dir, "output.avi")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write transcode input: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path,
		"-v", "error",
		"-nostdin",
		"-y",
		"-i", in,
		"-an",
		"-c:v", "mjpeg",
		"-q:v", "3",
		"-pix_fmt", "yuvj420p",
		"-f", "avi",
		out,
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("ffmpeg: %w", err)
		}
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}

	avi, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read transcode output: %w", err)
	}
	return avi, nil
}
