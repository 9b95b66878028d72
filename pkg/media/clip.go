// clip.go - Clock-driven playback over timed frames.
package media

import (
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheFrames is how many decoded frames a clip keeps.
const DefaultCacheFrames = 16

// frameSource yields decoded frames by index.
type frameSource interface {
	Len() int
	Decode(i int) (image.Image, error)
}

// Clip is a Player over a fixed sequence of timed frames. Playback
// position is derived from a clock, so Frame always reflects wall time
// while playing.
type Clip struct {
	mu sync.Mutex

	src      frameSource
	starts   []time.Duration // start offset of each frame
	duration time.Duration
	size     image.Point
	loop     bool
	now      func() time.Time

	playing   bool
	ended     bool
	base      time.Duration // position at startedAt
	startedAt time.Time

	decoded *lru.Cache[int, image.Image]
}

// ClipOptions configures playback behavior.
type ClipOptions struct {
	Loop bool
	// CacheFrames bounds the decoded frame cache (DefaultCacheFrames when <= 0).
	CacheFrames int
	// Now overrides the wall clock, mainly for tests.
	Now func() time.Time
}

func newClip(src frameSource, delays []time.Duration, size image.Point, opts ClipOptions) (*Clip, error) {
	if src.Len() == 0 || len(delays) != src.Len() {
		return nil, fmt.Errorf("clip: %d frames with %d delays", src.Len(), len(delays))
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("clip: invalid size %v", size)
	}

	starts := make([]time.Duration, len(delays))
	var total time.Duration
	for i, d := range delays {
		starts[i] = total
		total += d
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cacheSize := opts.CacheFrames
	if cacheSize <= 0 {
		cacheSize = DefaultCacheFrames
	}
	decoded, err := lru.New[int, image.Image](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("clip: frame cache: %w", err)
	}
	return &Clip{
		src:      src,
		starts:   starts,
		duration: total,
		size:     size,
		loop:     opts.Loop,
		now:      now,
		decoded:  decoded,
	}, nil
}

func (c *Clip) Kind() Kind       { return Video }
func (c *Clip) State() State     { return Ready }
func (c *Clip) Err() error       { return nil }
func (c *Clip) Size() (int, int) { return c.size.X, c.size.Y }

// Duration returns the summed frame delays.
func (c *Clip) Duration() time.Duration { return c.duration }

// FrameCount returns the number of frames in the clip.
func (c *Clip) FrameCount() int { return c.src.Len() }

// Play starts or resumes playback. An ended clip restarts from zero.
func (c *Clip) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return
	}
	if c.ended {
		c.base = 0
		c.ended = false
	}
	c.playing = true
	c.startedAt = c.now()
}

// Pause freezes the current position.
func (c *Clip) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.positionLocked()
	c.playing = false
}

// Seek moves the playback position, clamped to [0, Duration].
func (c *Clip) Seek(pos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = min(max(pos, 0), c.duration)
	c.startedAt = c.now()
	c.ended = false
}

// Playing reports whether the clip is advancing. A non-looping clip stops
// playing once it reaches the end.
func (c *Clip) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positionLocked()
	return c.playing
}

// Ended reports whether a non-looping clip has played to its end.
func (c *Clip) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positionLocked()
	return c.ended
}

// Position returns the current playback offset.
func (c *Clip) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

// positionLocked computes the position and applies end-of-clip state.
func (c *Clip) positionLocked() time.Duration {
	if !c.playing {
		return c.base
	}
	pos := c.base + c.now().Sub(c.startedAt)
	if c.duration <= 0 {
		return 0
	}
	if pos < c.duration {
		return pos
	}
	if c.loop {
		return pos % c.duration
	}
	c.playing = false
	c.ended = true
	c.base = c.duration
	return c.base
}

// Frame decodes the frame shown at the current position.
func (c *Clip) Frame() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos := c.positionLocked()
	idx := sort.Search(len(c.starts), func(i int) bool { return c.starts[i] > pos }) - 1
	idx = min(max(idx, 0), len(c.starts)-1)

	if img, ok := c.decoded.Get(idx); ok {
		return img, nil
	}
	img, err := c.src.Decode(idx)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", idx, err)
	}
	c.decoded.Add(idx, img)
	return img, nil
}
