package mvux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/mvux/command"
	"github.com/comalice/mvux/sub"
)

var (
	// ErrAlreadyStarted is returned by Start on a running program.
	ErrAlreadyStarted = errors.New("program already started")
	// ErrStopped is returned by Start on a stopped program.
	ErrStopped = errors.New("program stopped")
	// ErrInvalidApp is returned by New when the App or its options are
	// unusable.
	ErrInvalidApp = errors.New("invalid app")
)

// Dispatcher feeds a message into a program. It is safe to call from any
// goroutine and never blocks.
type Dispatcher[Msg any] = func(Msg)

// App is the contract between an application and its Program. Init and
// Update are required; View and Subscriptions may be nil.
type App[Model, Msg, View any] struct {
	Init          func() (Model, command.Cmd[Msg])
	Update        func(msg Msg, model Model) (Model, command.Cmd[Msg])
	View          func(dispatch Dispatcher[Msg], model Model) View
	Subscriptions func(model Model) sub.Sub[Msg]
}

type runState uint8

const (
	notStarted runState = iota
	running
	stopped
)

// Program drives an App. Messages are applied strictly one at a time, in
// arrival order, on a single goroutine.
type Program[Model, Msg, View any] struct {
	app      App[Model, Msg, View]
	id       string
	registry *sub.Registry
	render   func(View)
	observer Observer
	logger   *slog.Logger

	mu     sync.Mutex
	state  runState
	queue  []Msg
	model  Model
	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc

	// subs is only touched by Start and the loop goroutine.
	subs sub.Sub[Msg]
	wake chan struct{}
	done chan struct{}
}

// New builds a Program for app.
func New[Model, Msg, View any](app App[Model, Msg, View], opts ...Option) (*Program[Model, Msg, View], error) {
	if app.Init == nil || app.Update == nil {
		return nil, fmt.Errorf("%w: Init and Update are required", ErrInvalidApp)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	p := &Program[Model, Msg, View]{
		app:      app,
		id:       o.id,
		registry: o.registry,
		observer: o.observer,
		logger:   o.logger,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if o.renderer != nil {
		render, ok := o.renderer.(func(View))
		if !ok {
			return nil, fmt.Errorf("%w: renderer %T does not accept the app's view", ErrInvalidApp, o.renderer)
		}
		p.render = render
	}
	if p.id == "" {
		p.id = uuid.NewString()
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	p.logger = p.logger.With("program", p.id)
	if p.registry == nil {
		p.registry = sub.NewRegistry(sub.WithLogger(p.logger))
	}
	return p, nil
}

// ID returns the program's identifier.
func (p *Program[Model, Msg, View]) ID() string { return p.id }

// Registry returns the registry holding the program's shared resources.
func (p *Program[Model, Msg, View]) Registry() *sub.Registry { return p.registry }

// Model returns the current model.
func (p *Program[Model, Msg, View]) Model() Model {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model
}

// Done is closed once the program has stopped and released its
// subscriptions.
func (p *Program[Model, Msg, View]) Done() <-chan struct{} { return p.done }

// Start initializes the model, attaches its subscriptions, renders it and
// starts the message loop. The initial command runs from the loop goroutine.
// Cancelling ctx stops the program.
func (p *Program[Model, Msg, View]) Start(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case running:
		p.mu.Unlock()
		return ErrAlreadyStarted
	case stopped:
		p.mu.Unlock()
		return ErrStopped
	}
	p.state = running
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	model, cmd := p.app.Init()
	p.mu.Lock()
	p.model = model
	p.mu.Unlock()

	p.subs = p.subscriptions(model)
	p.subs.Init(p.registry, p.Dispatch)
	p.paint(model)
	p.observe(0, nil, model)
	p.logger.Debug("program started")

	context.AfterFunc(p.ctx, p.Stop)
	go p.loop(cmd)
	return nil
}

// Dispatch queues msg. Messages sent before Start wait for it; messages sent
// after Stop are dropped.
func (p *Program[Model, Msg, View]) Dispatch(msg Msg) {
	p.mu.Lock()
	if p.state == stopped {
		p.mu.Unlock()
		p.logger.Debug("message dropped after stop", "msg", msg)
		return
	}
	p.queue = append(p.queue, msg)
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Stop ends the message loop. The current subscriptions are released once
// the loop exits; Done reports when that has happened. Stop is idempotent.
func (p *Program[Model, Msg, View]) Stop() {
	p.mu.Lock()
	prev := p.state
	p.state = stopped
	p.queue = nil
	cancel := p.cancel
	p.mu.Unlock()

	switch prev {
	case notStarted:
		close(p.done)
	case running:
		cancel()
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
}

func (p *Program[Model, Msg, View]) loop(initial command.Cmd[Msg]) {
	defer close(p.done)
	defer func() {
		p.subs.Release()
		p.logger.Debug("program stopped")
	}()

	initial.Execute(p.ctx, p.Dispatch)
	for {
		msg, ok := p.next()
		if !ok {
			return
		}
		p.step(msg)
	}
}

// next blocks until a message is queued or the program stops.
func (p *Program[Model, Msg, View]) next() (Msg, bool) {
	var zero Msg
	for {
		p.mu.Lock()
		if p.state == stopped {
			p.mu.Unlock()
			return zero, false
		}
		if len(p.queue) > 0 {
			msg := p.queue[0]
			p.queue[0] = zero
			p.queue = p.queue[1:]
			p.mu.Unlock()
			return msg, true
		}
		p.mu.Unlock()

		select {
		case <-p.wake:
		case <-p.ctx.Done():
		}
	}
}

// step applies one message: update, attach the new subscriptions, release
// the old ones, commit, render, then start the command.
func (p *Program[Model, Msg, View]) step(msg Msg) {
	p.mu.Lock()
	model := p.model
	p.mu.Unlock()

	next, cmd := p.app.Update(msg, model)
	subs := p.subscriptions(next)
	sub.Swap(p.subs, subs, p.registry, p.Dispatch)
	p.subs = subs

	p.mu.Lock()
	p.model = next
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	p.paint(next)
	p.observe(seq, msg, next)
	p.logger.Debug("step committed", "seq", seq, "cmd", cmd.Kind())

	cmd.Execute(p.ctx, p.Dispatch)
}

func (p *Program[Model, Msg, View]) subscriptions(m Model) sub.Sub[Msg] {
	if p.app.Subscriptions == nil {
		return sub.None[Msg]()
	}
	return p.app.Subscriptions(m)
}

func (p *Program[Model, Msg, View]) paint(m Model) {
	if p.app.View == nil || p.render == nil {
		return
	}
	p.render(p.app.View(p.Dispatch, m))
}

func (p *Program[Model, Msg, View]) observe(seq uint64, msg any, m Model) {
	if p.observer == nil {
		return
	}
	p.observer.Observe(Step{
		ProgramID: p.id,
		Seq:       seq,
		Msg:       msg,
		Model:     m,
		Timestamp: time.Now(),
	})
}
