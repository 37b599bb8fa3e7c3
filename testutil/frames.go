package testutil

import (
	"sort"
	"sync"
	"time"
)

// ManualFrames is a frame scheduler that paints only when Step is called. It
// satisfies sub.FrameScheduler.
type ManualFrames struct {
	mu       sync.Mutex
	seq      uint64
	pending  map[uint64]func(time.Time)
	requests int
}

// NewManualFrames returns a scheduler with no pending frames.
func NewManualFrames() *ManualFrames {
	return &ManualFrames{pending: make(map[uint64]func(time.Time))}
}

func (f *ManualFrames) RequestFrame(fn func(time.Time)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := f.seq
	f.pending[id] = fn
	f.requests++
	return func() {
		f.mu.Lock()
		delete(f.pending, id)
		f.mu.Unlock()
	}
}

// Step runs every callback pending at the time of the call with now and
// returns how many ran. Frames requested by those callbacks wait for the next
// Step.
func (f *ManualFrames) Step(now time.Time) int {
	f.mu.Lock()
	ids := make([]uint64, 0, len(f.pending))
	for id := range f.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(time.Time), len(ids))
	for i, id := range ids {
		fns[i] = f.pending[id]
		delete(f.pending, id)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
	return len(fns)
}

// Pending reports how many frames are requested and not yet painted.
func (f *ManualFrames) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Requests reports how many frames were ever requested.
func (f *ManualFrames) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}
