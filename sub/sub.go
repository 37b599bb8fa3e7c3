// Package sub describes standing event sources with an init/release
// lifecycle.
//
// A Sub is built by the application on every update and handed to the
// runtime, which attaches the new tree before releasing the old one. Leaves
// that want the same native resource (an interval with the same delay, the
// frame loop, a listener for the same event type) share it through the
// Registry, which opens the resource for the first subscriber and closes it
// when the last one releases.
package sub

import (
	"fmt"
	"sync"
)

// Kind tags the variant of a Sub.
type Kind uint8

const (
	KindNone Kind = iota
	KindBatch
	KindMapped
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBatch:
		return "batch"
	case KindMapped:
		return "mapped"
	case KindLeaf:
		return "leaf"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// State is the lifecycle position of a leaf subscription.
type State uint8

const (
	Uninitialized State = iota
	Active
	Released
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Released:
		return "released"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Sub is a subscription tree. The zero Sub subscribes to nothing.
type Sub[Msg any] struct {
	kind     Kind
	children []Sub[Msg]
	node     node[Msg]
}

// node is a leaf or a mapped subtree.
type node[Msg any] interface {
	init(reg *Registry, dispatch func(Msg))
	release()
	leaves(visit func(*lifecycle))
}

// Kind reports the variant of s.
func (s Sub[Msg]) Kind() Kind { return s.kind }

// Init attaches every leaf of s to reg. Messages are delivered through
// dispatch, which is called from resource goroutines and must not block.
// Leaves that are already active or released are left alone.
func (s Sub[Msg]) Init(reg *Registry, dispatch func(Msg)) {
	if reg == nil {
		panic("sub: Init with nil Registry")
	}
	switch s.kind {
	case KindNone:
	case KindBatch:
		for _, c := range s.children {
			c.Init(reg, dispatch)
		}
	case KindMapped, KindLeaf:
		s.node.init(reg, dispatch)
	}
}

// Release detaches every leaf of s. It is idempotent and safe on a tree that
// was never initialized.
func (s Sub[Msg]) Release() {
	switch s.kind {
	case KindNone:
	case KindBatch:
		for _, c := range s.children {
			c.Release()
		}
	case KindMapped, KindLeaf:
		s.node.release()
	}
}

func (s Sub[Msg]) visit(fn func(*lifecycle)) {
	switch s.kind {
	case KindNone:
	case KindBatch:
		for _, c := range s.children {
			c.visit(fn)
		}
	case KindMapped, KindLeaf:
		s.node.leaves(fn)
	}
}

// Swap initializes next and then releases the leaves of prev that next does
// not also contain. Attaching first keeps shared resources open across the
// swap.
func Swap[Msg any](prev, next Sub[Msg], reg *Registry, dispatch func(Msg)) {
	next.Init(reg, dispatch)
	keep := make(map[*lifecycle]struct{})
	next.visit(func(l *lifecycle) { keep[l] = struct{}{} })
	prev.visit(func(l *lifecycle) {
		if _, ok := keep[l]; !ok {
			l.release()
		}
	})
}

// None returns the empty subscription.
func None[Msg any]() Sub[Msg] { return Sub[Msg]{} }

// Batch combines subscriptions, flattening nested batches and dropping None.
func Batch[Msg any](subs ...Sub[Msg]) Sub[Msg] {
	var flat []Sub[Msg]
	for _, s := range subs {
		switch s.kind {
		case KindNone:
		case KindBatch:
			flat = append(flat, s.children...)
		default:
			flat = append(flat, s)
		}
	}
	switch len(flat) {
	case 0:
		return None[Msg]()
	case 1:
		return flat[0]
	}
	return Sub[Msg]{kind: KindBatch, children: flat}
}

// Map transforms every message s produces with f.
func Map[A, B any](s Sub[A], f func(A) B) Sub[B] {
	if s.kind == KindNone {
		return None[B]()
	}
	return Sub[B]{kind: KindMapped, node: &mapped[A, B]{inner: s, f: f}}
}

type mapped[A, B any] struct {
	inner Sub[A]
	f     func(A) B
}

func (m *mapped[A, B]) init(reg *Registry, dispatch func(B)) {
	m.inner.Init(reg, func(a A) { dispatch(m.f(a)) })
}

func (m *mapped[A, B]) release() { m.inner.Release() }

func (m *mapped[A, B]) leaves(visit func(*lifecycle)) { m.inner.visit(visit) }

// lifecycle is the untyped state shared by every leaf.
type lifecycle struct {
	kind  string
	key   any // nil for unshared leaves
	open  opener
	state State

	mu          sync.Mutex
	unsubscribe func()
}

func (l *lifecycle) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Active && l.unsubscribe != nil {
		l.unsubscribe()
		l.unsubscribe = nil
	}
	l.state = Released
}

func (l *lifecycle) current() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// leaf turns payloads from its shared resource into messages.
type leaf[Msg any] struct {
	lc    *lifecycle
	toMsg func(reg *Registry, payload any) (Msg, bool)
}

func newLeaf[Msg any](kind string, key any, open opener, toMsg func(*Registry, any) (Msg, bool)) Sub[Msg] {
	return Sub[Msg]{kind: KindLeaf, node: &leaf[Msg]{
		lc:    &lifecycle{kind: kind, key: key, open: open},
		toMsg: toMsg,
	}}
}

func (lf *leaf[Msg]) init(reg *Registry, dispatch func(Msg)) {
	lc := lf.lc
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if lc.state != Uninitialized {
		return
	}
	lc.state = Active
	ln := &listener{active: true}
	ln.deliver = func(payload any) {
		if msg, ok := lf.toMsg(reg, payload); ok {
			dispatch(msg)
		}
	}
	key := groupKey{kind: lc.kind, param: lc.key}
	if lc.key == nil {
		key.param = ln
	}
	lc.unsubscribe = reg.subscribe(key, lc.open, ln)
}

func (lf *leaf[Msg]) release() { lf.lc.release() }

func (lf *leaf[Msg]) leaves(visit func(*lifecycle)) { visit(lf.lc) }
