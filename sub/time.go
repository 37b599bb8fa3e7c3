package sub

import "time"

// Every fires f with the current time every d. Subscriptions with the same d
// share one timer. A non-positive d subscribes to nothing.
func Every[Msg any](d time.Duration, f func(time.Time) Msg) Sub[Msg] {
	if d <= 0 {
		return None[Msg]()
	}
	open := func(r *Registry, emit func(any)) func() {
		return r.clock.Every(d, func(now time.Time) { emit(now) })
	}
	return newLeaf("every", d, open, func(_ *Registry, payload any) (Msg, bool) {
		return f(payload.(time.Time)), true
	})
}

// AnimationFrame fires f with the frame time on every frame.
func AnimationFrame[Msg any](f func(time.Time) Msg) Sub[Msg] {
	return newLeaf[Msg]("frame", "frame", openFrameLoop, func(_ *Registry, payload any) (Msg, bool) {
		return f(payload.(frame).now), true
	})
}

// AnimationFrameDelta fires f with the time elapsed since the previous frame.
// It shares the frame loop with AnimationFrame.
func AnimationFrameDelta[Msg any](f func(time.Duration) Msg) Sub[Msg] {
	return newLeaf[Msg]("frame", "frame", openFrameLoop, func(_ *Registry, payload any) (Msg, bool) {
		return f(payload.(frame).delta), true
	})
}
