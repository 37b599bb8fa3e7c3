package mvux

import "time"

// Step describes one committed update. The initial model is reported as
// step 0 with a nil Msg.
type Step struct {
	ProgramID string
	Seq       uint64
	Msg       any
	Model     any
	Timestamp time.Time
}

// Observer receives every step a program commits, on the program's loop
// goroutine. It must not block.
type Observer interface {
	Observe(Step)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Step)

func (f ObserverFunc) Observe(s Step) { f(s) }

// ChannelObserver sends steps to a buffered channel and drops them when the
// channel is full.
type ChannelObserver struct {
	ch chan Step
}

// NewChannelObserver returns an observer with the given buffer size.
func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{ch: make(chan Step, buffer)}
}

func (o *ChannelObserver) Observe(s Step) {
	select {
	case o.ch <- s:
	default:
	}
}

// Steps returns the receive side of the observer's channel.
func (o *ChannelObserver) Steps() <-chan Step { return o.ch }
