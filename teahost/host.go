// Package teahost runs a program's string views in a terminal through
// bubbletea and feeds terminal input back as events.
//
// Key presses are emitted as "keydown" with the key's string form ("a",
// "enter", "ctrl+x"); window resizes as "resize" with {"width", "height"}.
// Subscribe to them with sub.On against the same EventTarget.
package teahost

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/comalice/mvux/sub"
)

const (
	// EventKeyDown carries the pressed key as a string.
	EventKeyDown = "keydown"
	// EventResize carries the terminal size as {"width": w, "height": h}.
	EventResize = "resize"
)

// Host bridges a Program renderer to a bubbletea program.
type Host struct {
	emit    sub.Emitter
	quit    key.Binding
	teaOpts []tea.ProgramOption

	mu   sync.Mutex
	view string
	prog *tea.Program

	// repaintPending is set while a repaint is queued and not yet handled.
	repaintPending atomic.Bool
}

// Option configures a Host.
type Option func(*Host)

// WithQuitKeys replaces the default quit keys (q, ctrl+c).
func WithQuitKeys(keys ...string) Option {
	return func(h *Host) { h.quit = key.NewBinding(key.WithKeys(keys...)) }
}

// WithProgramOptions passes options through to tea.NewProgram.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(h *Host) { h.teaOpts = append(h.teaOpts, opts...) }
}

// New returns a host emitting terminal events into emit.
func New(emit sub.Emitter, opts ...Option) *Host {
	h := &Host{
		emit: emit,
		quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Render stores view for the next paint. It is meant to be passed to
// mvux.WithRenderer. Renders arriving while a repaint is still queued fold
// into that repaint.
func (h *Host) Render(view string) {
	h.mu.Lock()
	h.view = view
	prog := h.prog
	h.mu.Unlock()
	if prog != nil && h.repaintPending.CompareAndSwap(false, true) {
		// Send blocks until the program reads it, and the caller may be
		// running inside that program's update.
		go prog.Send(repaintMsg{})
	}
}

// View returns the last rendered view.
func (h *Host) View() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view
}

// Run shows the terminal UI until a quit key is pressed or ctx ends.
func (h *Host) Run(ctx context.Context) error {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, h.teaOpts...)
	prog := tea.NewProgram(model{h: h}, opts...)
	h.mu.Lock()
	h.prog = prog
	h.mu.Unlock()
	h.repaintPending.Store(false)
	defer func() {
		h.mu.Lock()
		h.prog = nil
		h.mu.Unlock()
	}()

	_, err := prog.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type repaintMsg struct{}

type model struct {
	h *Host
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.h.quit) {
			return m, tea.Quit
		}
		m.h.emit.Emit(EventKeyDown, msg.String())
	case tea.WindowSizeMsg:
		m.h.emit.Emit(EventResize, map[string]any{"width": msg.Width, "height": msg.Height})
	case repaintMsg:
		m.h.repaintPending.Store(false)
	}
	return m, nil
}

func (m model) View() string { return m.h.View() }
