// Package media normalizes images and videos into a Handle exposing the
// natural size and the current decoded frame. Video handles also
// implement Player.
package media

import (
	"errors"
	"fmt"
	"image"
	"path"
	"strings"
	"time"
)

// Kind distinguishes still images from time-based media.
type Kind int

const (
	KindUnknown Kind = iota
	Image
	Video
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return "unknown"
	}
}

// State is the load state of a handle.
type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Handle is a loaded media source.
type Handle interface {
	Kind() Kind
	// Size returns the natural pixel dimensions; zero until Ready.
	Size() (width, height int)
	State() State
	// Err is non-nil when State is Failed.
	Err() error
	// Frame returns the frame at the current playback position.
	Frame() (image.Image, error)
}

// Player is implemented by video handles.
type Player interface {
	Handle
	Play()
	Pause()
	Seek(pos time.Duration)
	Playing() bool
	Ended() bool
	// Duration returns 0 when unknown.
	Duration() time.Duration
}

// ErrUnsupported is returned for inputs no decoder accepts.
var ErrUnsupported = errors.New("unsupported media format")

// LoadError reports a source that could not be fetched or decoded.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// FailedHandle returns a handle in the Failed state carrying a *LoadError.
func FailedHandle(source string, err error) Handle {
	var le *LoadError
	if !errors.As(err, &le) {
		le = &LoadError{Source: source, Err: err}
	}
	return failedHandle{err: le}
}

type failedHandle struct{ err *LoadError }

func (failedHandle) Kind() Kind                    { return KindUnknown }
func (failedHandle) Size() (int, int)              { return 0, 0 }
func (failedHandle) State() State                  { return Failed }
func (h failedHandle) Err() error                  { return h.err }
func (h failedHandle) Frame() (image.Image, error) { return nil, h.err }

var videoExts = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".m4v":  true,
}

// DetectKind guesses the kind from a file name or URL path. Animated GIFs
// are only recognized after decoding, so ".gif" reports Image here.
func DetectKind(name string) Kind {
	if i := strings.IndexAny(name, "?#"); i >= 0 && strings.Contains(name, "://") {
		name = name[:i]
	}
	if videoExts[strings.ToLower(path.Ext(name))] {
		return Video
	}
	return Image
}

// KindFromMIME maps a MIME type such as "video/webm" to a Kind.
func KindFromMIME(mime string) Kind {
	switch {
	case strings.HasPrefix(mime, "video/"):
		return Video
	case strings.HasPrefix(mime, "image/"):
		return Image
	default:
		return KindUnknown
	}
}
