package sub

import "sync"

// FromChannel turns values received on ch into messages until ch is closed
// or the subscription is released. Each FromChannel leaf reads ch on its own.
func FromChannel[T, Msg any](ch <-chan T, f func(T) Msg) Sub[Msg] {
	open := func(_ *Registry, emit func(any)) func() {
		stop := make(chan struct{})
		go func() {
			for {
				select {
				case v, ok := <-ch:
					if !ok {
						return
					}
					emit(v)
				case <-stop:
					return
				}
			}
		}()
		var once sync.Once
		return func() { once.Do(func() { close(stop) }) }
	}
	return newLeaf("channel", nil, open, func(_ *Registry, payload any) (Msg, bool) {
		return f(payload.(T)), true
	})
}

// Func is a custom leaf. start is called on init with an emit function and
// returns the function that stops the source.
func Func[Msg any](start func(emit func(Msg)) (stop func())) Sub[Msg] {
	open := func(_ *Registry, emit func(any)) func() {
		stop := start(func(m Msg) { emit(m) })
		if stop == nil {
			return func() {}
		}
		return stop
	}
	return newLeaf("func", nil, open, func(_ *Registry, payload any) (Msg, bool) {
		return payload.(Msg), true
	})
}
