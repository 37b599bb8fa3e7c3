package sub

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultFrameInterval is the frame period used when no FrameScheduler is
// configured.
const DefaultFrameInterval = time.Second / 60

// opener starts a native resource whose events are passed to emit. It returns
// the function that tears the resource down.
type opener func(r *Registry, emit func(payload any)) (closeFn func())

type groupKey struct {
	kind  string
	param any
}

// listener is one logical subscriber inside a group. Delivery and
// deactivation are serialized, so a listener never sees a payload once
// deactivate has returned.
type listener struct {
	mu      sync.Mutex
	active  bool
	deliver func(any)
}

func (l *listener) fire(payload any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		l.deliver(payload)
	}
}

func (l *listener) deactivate() {
	l.mu.Lock()
	l.active = false
	l.mu.Unlock()
}

type group struct {
	key     groupKey
	members map[*listener]struct{}

	lifecycle sync.Mutex
	closeFn   func()
	closed    bool
}

// Usage counts the open groups and attached subscribers of one leaf kind.
type Usage struct {
	Groups      int
	Subscribers int
}

// Registry owns the shared native resources of one program. It is safe for
// concurrent use.
type Registry struct {
	clock         Clock
	frames        FrameScheduler
	frameInterval time.Duration
	target        EventTarget
	dialer        *websocket.Dialer
	logger        *slog.Logger

	mu     sync.Mutex
	groups map[groupKey]*group
	ports  map[string]*portRoute
	socks  map[string]*socket
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock that drives Every.
func WithClock(c Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithFrameScheduler sets the scheduler that drives the animation frame loop.
func WithFrameScheduler(f FrameScheduler) Option {
	return func(r *Registry) { r.frames = f }
}

// WithFrameInterval sets the period of the default frame scheduler. It has no
// effect when WithFrameScheduler is also given.
func WithFrameInterval(d time.Duration) Option {
	return func(r *Registry) { r.frameInterval = d }
}

// WithEventTarget sets where On listeners are attached.
func WithEventTarget(t EventTarget) Option {
	return func(r *Registry) { r.target = t }
}

// WithDialer sets the dialer used by WebSocket subscriptions.
func WithDialer(d *websocket.Dialer) Option {
	return func(r *Registry) { r.dialer = d }
}

// WithLogger sets the logger for resource lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		frameInterval: DefaultFrameInterval,
		groups:        make(map[groupKey]*group),
		ports:         make(map[string]*portRoute),
		socks:         make(map[string]*socket),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.clock == nil {
		r.clock = realClock{}
	}
	if r.frames == nil {
		r.frames = tickerFrames{interval: r.frameInterval}
	}
	if r.target == nil {
		r.target = NewEventBus()
	}
	if r.dialer == nil {
		r.dialer = websocket.DefaultDialer
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Clock returns the clock driving interval subscriptions.
func (r *Registry) Clock() Clock { return r.clock }

// Target returns the event target On listeners attach to.
func (r *Registry) Target() EventTarget { return r.target }

// Emit forwards an event to the registry's target. It reports false when the
// target cannot be emitted into.
func (r *Registry) Emit(eventType string, payload any) bool {
	em, ok := r.target.(Emitter)
	if !ok {
		return false
	}
	em.Emit(eventType, payload)
	return true
}

// Stats reports open groups and subscribers per leaf kind.
func (r *Registry) Stats() map[string]Usage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Usage)
	for k, g := range r.groups {
		u := out[k.kind]
		u.Groups++
		u.Subscribers += len(g.members)
		out[k.kind] = u
	}
	return out
}

// Groups lists the keys of open groups, for diagnostics.
func (r *Registry) Groups() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.groups))
	for k := range r.groups {
		if _, unshared := k.param.(*listener); unshared {
			out = append(out, k.kind)
			continue
		}
		out = append(out, fmt.Sprintf("%s:%v", k.kind, k.param))
	}
	sort.Strings(out)
	return out
}

// subscribe adds ln to the group for key, opening the resource when the
// group is new. The returned function removes ln and closes the resource once
// the group is empty.
func (r *Registry) subscribe(key groupKey, open opener, ln *listener) func() {
	r.mu.Lock()
	g, ok := r.groups[key]
	if !ok {
		g = &group{key: key, members: make(map[*listener]struct{})}
		r.groups[key] = g
	}
	g.members[ln] = struct{}{}
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("subscription group opened", "kind", key.kind, "key", key.param)
		g.lifecycle.Lock()
		if !g.closed {
			g.closeFn = open(r, func(payload any) { r.fanout(g, payload) })
		}
		g.lifecycle.Unlock()
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.unsubscribe(g, ln) })
	}
}

func (r *Registry) unsubscribe(g *group, ln *listener) {
	ln.deactivate()

	r.mu.Lock()
	delete(g.members, ln)
	empty := len(g.members) == 0
	if empty && r.groups[g.key] == g {
		delete(r.groups, g.key)
	}
	r.mu.Unlock()
	if !empty {
		return
	}

	g.lifecycle.Lock()
	defer g.lifecycle.Unlock()
	g.closed = true
	if g.closeFn != nil {
		g.closeFn()
		g.closeFn = nil
	}
	r.logger.Debug("subscription group closed", "kind", g.key.kind, "key", g.key.param)
}

// fanout delivers payload to the members of g at the time of the call.
// Members of a closed group are gone, so late fires reach nobody.
func (r *Registry) fanout(g *group, payload any) {
	r.mu.Lock()
	members := make([]*listener, 0, len(g.members))
	for ln := range g.members {
		members = append(members, ln)
	}
	r.mu.Unlock()
	for _, ln := range members {
		ln.fire(payload)
	}
}
