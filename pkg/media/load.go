// load.go - Fetching sources and routing them to a decoder.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// DefaultMaxBytes caps how much of a source is read into memory.
const DefaultMaxBytes = 512 << 20

// Options controls how sources are fetched and decoded.
type Options struct {
	// Kind forces the media kind; KindUnknown detects it.
	Kind Kind
	// Loop makes video handles restart at the end instead of ending.
	Loop bool
	// FFmpeg is the binary used for containers other than MJPEG AVI.
	FFmpeg      string
	Client      *http.Client
	MaxBytes    int64
	CacheFrames int
	Now         func() time.Time
}

func (o Options) clip() ClipOptions {
	return ClipOptions{Loop: o.Loop, CacheFrames: o.CacheFrames, Now: o.Now}
}

// Open loads ref, a local path or an http(s) URL. Failures are returned
// as *LoadError.
func Open(ctx context.Context, ref string, opts Options) (Handle, error) {
	data, name, mime, err := fetch(ctx, ref, opts)
	if err != nil {
		return nil, &LoadError{Source: ref, Err: err}
	}
	if opts.Kind == KindUnknown && DetectKind(name) == Image {
		opts.Kind = KindFromMIME(mime)
	}
	h, err := Decode(ctx, data, name, opts)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = ref
			return nil, le
		}
		return nil, &LoadError{Source: ref, Err: err}
	}
	return h, nil
}

// Decode builds a handle from bytes already in memory. name is only used
// for its extension.
func Decode(ctx context.Context, data []byte, name string, opts Options) (Handle, error) {
	if len(data) == 0 {
		return nil, &LoadError{Source: name, Err: errors.New("empty input")}
	}

	sniffed := http.DetectContentType(data)
	kind := opts.Kind
	if kind == KindUnknown {
		kind = KindFromMIME(sniffed)
		if kind == KindUnknown || DetectKind(name) == Video {
			kind = DetectKind(name)
		}
	}

	var (
		h   Handle
		err error
	)
	switch {
	case sniffed == "image/gif" || strings.EqualFold(path.Ext(name), ".gif"):
		h, err = decodeGIF(bytes.NewReader(data), opts.clip())
	case kind == Video:
		h, err = decodeVideo(ctx, data, name, opts)
	default:
		h, err = decodeStill(bytes.NewReader(data))
	}
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	return h, nil
}

func decodeVideo(ctx context.Context, data []byte, name string, opts Options) (Handle, error) {
	clip, err := decodeAVI(data, opts.clip())
	if err == nil {
		return clip, nil
	}
	if !errors.Is(err, errNotAVI) && !errors.Is(err, ErrUnsupported) {
		return nil, err
	}

	avi, terr := transcodeToMJPEG(ctx, opts.FFmpeg, data, name)
	if terr != nil {
		return nil, fmt.Errorf("%s needs transcoding: %w", path.Ext(name), terr)
	}
	return decodeAVI(avi, opts.clip())
}

func fetch(ctx context.Context, ref string, opts Options) (data []byte, name, mime string, err error) {
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	u, perr := url.Parse(ref)
	if perr != nil || (u.Scheme != "http" && u.Scheme != "https") {
		f, err := os.Open(ref)
		if err != nil {
			return nil, "", "", err
		}
		defer f.Close()
		data, err = readLimited(f, limit)
		return data, ref, "", err
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("GET %s: %s", u.Redacted(), resp.Status)
	}

	data, err = readLimited(resp.Body, limit)
	return data, u.Path, resp.Header.Get("Content-Type"), err
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("source larger than %d bytes", limit)
	}
	return data, nil
}
