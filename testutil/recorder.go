package testutil

import (
	"fmt"
	"sync"
	"time"
)

// Recorder is a dispatcher that keeps every message it receives.
type Recorder[Msg any] struct {
	mu     sync.Mutex
	msgs   []Msg
	notify chan struct{}
}

// NewRecorder returns an empty Recorder.
func NewRecorder[Msg any]() *Recorder[Msg] {
	return &Recorder[Msg]{notify: make(chan struct{}, 1)}
}

// Dispatch records m. It never blocks.
func (r *Recorder[Msg]) Dispatch(m Msg) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder[Msg]) Messages() []Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Msg(nil), r.msgs...)
}

// Len reports how many messages were recorded.
func (r *Recorder[Msg]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

// WaitFor blocks until at least n messages are recorded or timeout passes.
func (r *Recorder[Msg]) WaitFor(n int, timeout time.Duration) ([]Msg, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if msgs := r.Messages(); len(msgs) >= n {
			return msgs, nil
		}
		select {
		case <-r.notify:
		case <-deadline.C:
			return r.Messages(), fmt.Errorf("timed out after %v waiting for %d messages, have %d", timeout, n, r.Len())
		}
	}
}
