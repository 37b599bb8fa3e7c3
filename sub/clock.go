package sub

import (
	"sync"
	"time"
)

// Clock drives interval subscriptions.
type Clock interface {
	Now() time.Time
	// Every calls fn every d until stop is called.
	Every(d time.Duration, fn func(time.Time)) (stop func())
}

// FrameScheduler requests a single callback for the next frame.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time)) (cancel func())
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Every(d time.Duration, fn func(time.Time)) func() {
	ticker := time.NewTicker(d)
	stop := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				fn(now)
			case <-stop:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}

// tickerFrames paints a frame every interval.
type tickerFrames struct {
	interval time.Duration
}

func (f tickerFrames) RequestFrame(fn func(time.Time)) func() {
	t := time.AfterFunc(f.interval, func() { fn(time.Now()) })
	return func() { t.Stop() }
}

// frame is the payload of the shared frame loop.
type frame struct {
	now   time.Time
	delta time.Duration
}

// frameLoop requests one frame at a time and reschedules itself after every
// frame until stopped.
type frameLoop struct {
	sched FrameScheduler
	emit  func(any)

	mu      sync.Mutex
	last    time.Time
	cancel  func()
	stopped bool
}

func openFrameLoop(r *Registry, emit func(any)) func() {
	fl := &frameLoop{sched: r.frames, emit: emit, last: r.clock.Now()}
	fl.schedule()
	return fl.stop
}

func (fl *frameLoop) schedule() {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.stopped {
		return
	}
	fl.cancel = fl.sched.RequestFrame(fl.tick)
}

func (fl *frameLoop) tick(now time.Time) {
	fl.mu.Lock()
	if fl.stopped {
		fl.mu.Unlock()
		return
	}
	delta := now.Sub(fl.last)
	if delta < 0 {
		delta = 0
	}
	fl.last = now
	fl.mu.Unlock()

	fl.emit(frame{now: now, delta: delta})
	fl.schedule()
}

func (fl *frameLoop) stop() {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.stopped = true
	if fl.cancel != nil {
		fl.cancel()
		fl.cancel = nil
	}
}
