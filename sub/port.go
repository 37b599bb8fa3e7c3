package sub

import (
	"github.com/comalice/mvux/decode"
	"github.com/comalice/mvux/result"
)

// Port subscribes to values sent with Registry.Send under name. Each value is
// decoded with d and handed to f with the outcome, so bad input reaches the
// application as an Err.
func Port[T, Msg any](name string, d decode.Decoder[T], f func(result.Result[string, T]) Msg) Sub[Msg] {
	return newLeaf("port", name, openPort(name), func(_ *Registry, payload any) (Msg, bool) {
		return f(d.DecodeValue(payload)), true
	})
}

// portRoute is the open group behind a port name. A closing group only
// removes its own route, since a new group may already have replaced it.
type portRoute struct {
	emit func(any)
}

func openPort(name string) opener {
	return func(r *Registry, emit func(any)) func() {
		route := &portRoute{emit: emit}
		r.mu.Lock()
		r.ports[name] = route
		r.mu.Unlock()
		return func() {
			r.mu.Lock()
			if r.ports[name] == route {
				delete(r.ports, name)
			}
			r.mu.Unlock()
		}
	}
}

// Send pushes v into the port called name. It reports false when nothing is
// subscribed to the port.
func (r *Registry) Send(name string, v any) bool {
	r.mu.Lock()
	route, ok := r.ports[name]
	r.mu.Unlock()
	if !ok {
		return false
	}
	route.emit(v)
	return true
}
