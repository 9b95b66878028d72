// scheduler.go - Frame callback scheduling and cancellation.
package render

import (
	"sync"
	"time"
)

// Token identifies a scheduled tick so it can be cancelled.
type Token uint64

// Scheduler runs a callback once on the next frame. Implementations must
// never invoke the callback synchronously from ScheduleNextTick.
type Scheduler interface {
	ScheduleNextTick(fn func()) Token
	Cancel(tok Token)
}

// DefaultFrameInterval approximates a 60 Hz display.
const DefaultFrameInterval = time.Second / 60

// FrameScheduler fires each callback after a fixed frame interval.
type FrameScheduler struct {
	interval time.Duration

	mu     sync.Mutex
	next   Token
	timers map[Token]*time.Timer
}

// NewFrameScheduler returns a scheduler ticking every interval
// (DefaultFrameInterval when interval <= 0).
func NewFrameScheduler(interval time.Duration) *FrameScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameScheduler{interval: interval, timers: make(map[Token]*time.Timer)}
}

func (s *FrameScheduler) ScheduleNextTick(fn func()) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	tok := s.next
	s.timers[tok] = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		_, live := s.timers[tok]
		delete(s.timers, tok)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	return tok
}

func (s *FrameScheduler) Cancel(tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[tok]; ok {
		t.Stop()
		delete(s.timers, tok)
	}
}

// Pending returns the number of scheduled, not yet fired callbacks.
func (s *FrameScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// StepScheduler is a deterministic Scheduler: callbacks run only when
// Step is called. Useful for headless rendering and tests.
type StepScheduler struct {
	mu        sync.Mutex
	next      Token
	queue     []stepEntry
	cancelled []Token
}

type stepEntry struct {
	tok Token
	fn  func()
}

func NewStepScheduler() *StepScheduler {
	return &StepScheduler{}
}

func (s *StepScheduler) ScheduleNextTick(fn func()) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.queue = append(s.queue, stepEntry{tok: s.next, fn: fn})
	return s.next
}

func (s *StepScheduler) Cancel(tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.queue {
		if e.tok == tok {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.cancelled = append(s.cancelled, tok)
			return
		}
	}
}

// Step runs every callback queued before the call and returns how many ran.
// Callbacks scheduled during Step wait for the next Step.
func (s *StepScheduler) Step() int {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, e := range batch {
		e.fn()
	}
	return len(batch)
}

// Pending returns the queued callback tokens.
func (s *StepScheduler) Pending() []Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	toks := make([]Token, len(s.queue))
	for i, e := range s.queue {
		toks[i] = e.tok
	}
	return toks
}

// Cancelled returns tokens removed by Cancel before they ran.
func (s *StepScheduler) Cancelled() []Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Token(nil), s.cancelled...)
}
