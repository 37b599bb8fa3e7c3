package task

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/comalice/mvux/result"
)

// Sleep completes after d. If ctx ends first the task never completes.
func Sleep[E any](d time.Duration) Task[E, struct{}] {
	return New(func(ctx context.Context, done func(result.Result[E, struct{}])) {
		// The timer can fire before stop is assigned; ready orders the two.
		ready := make(chan struct{})
		var stop func() bool
		timer := time.AfterFunc(d, func() {
			<-ready
			stop()
			done(result.Ok[E](struct{}{}))
		})
		stop = context.AfterFunc(ctx, func() { timer.Stop() })
		close(ready)
	})
}

// Now reads the clock when the task runs.
func Now[E any]() Task[E, time.Time] {
	return New(func(_ context.Context, done func(result.Result[E, time.Time])) {
		done(result.Ok[E](time.Now()))
	})
}

// RandomInt draws a uniformly distributed integer in [lo, hi].
func RandomInt[E any](lo, hi int) Task[E, int] {
	if hi < lo {
		lo, hi = hi, lo
	}
	return New(func(_ context.Context, done func(result.Result[E, int])) {
		done(result.Ok[E](lo + rand.IntN(hi-lo+1)))
	})
}
