package sub

import (
	"sync"

	"github.com/comalice/mvux/decode"
)

// EventTarget is where On listeners attach.
type EventTarget interface {
	// Listen registers fn for eventType. Capturing listeners run before
	// non-capturing ones. The returned function removes the listener.
	Listen(eventType string, capture bool, fn func(payload any)) (remove func())
}

// Emitter accepts events from a view host.
type Emitter interface {
	Emit(eventType string, payload any)
}

// EventBus is an in-process EventTarget a view host emits into.
type EventBus struct {
	mu        sync.Mutex
	next      uint64
	listeners map[string][]busListener
}

type busListener struct {
	id      uint64
	capture bool
	fn      func(any)
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[string][]busListener)}
}

// Listen implements EventTarget.
func (b *EventBus) Listen(eventType string, capture bool, fn func(any)) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	b.listeners[eventType] = append(b.listeners[eventType], busListener{id: id, capture: capture, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		ls := b.listeners[eventType]
		for i, l := range ls {
			if l.id == id {
				b.listeners[eventType] = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
		if len(b.listeners[eventType]) == 0 {
			delete(b.listeners, eventType)
		}
	}
}

// Emit delivers payload to the listeners of eventType, capturing ones first,
// each phase in registration order.
func (b *EventBus) Emit(eventType string, payload any) {
	b.mu.Lock()
	ls := append([]busListener(nil), b.listeners[eventType]...)
	b.mu.Unlock()
	for _, capture := range []bool{true, false} {
		for _, l := range ls {
			if l.capture == capture {
				l.fn(payload)
			}
		}
	}
}

// Len reports how many listeners are attached for eventType.
func (b *EventBus) Len(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[eventType])
}

// ListenOption configures On.
type ListenOption func(*listenConfig)

type listenConfig struct {
	capture bool
}

// Capture attaches the listener in the capture phase.
func Capture() ListenOption {
	return func(c *listenConfig) { c.capture = true }
}

type eventKey struct {
	eventType string
	capture   bool
}

// On listens for eventType on the registry's EventTarget and decodes each
// payload with d. Payloads that fail to decode produce no message. Listeners
// with the same event type and phase share one native listener.
func On[T, Msg any](eventType string, d decode.Decoder[T], f func(T) Msg, opts ...ListenOption) Sub[Msg] {
	var cfg listenConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	key := eventKey{eventType: eventType, capture: cfg.capture}
	open := func(r *Registry, emit func(any)) func() {
		return r.target.Listen(eventType, cfg.capture, emit)
	}
	return newLeaf("event", key, open, func(r *Registry, payload any) (Msg, bool) {
		res := d.DecodeValue(payload)
		v, ok := res.Value()
		if !ok {
			msg, _ := res.Error()
			r.logger.Debug("event payload dropped", "event", eventType, "reason", msg)
			var zero Msg
			return zero, false
		}
		return f(v), true
	})
}
