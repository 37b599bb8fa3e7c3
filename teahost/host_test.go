package teahost

import (
	"context"
	"io"
	"runtime"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/comalice/mvux/decode"
	"github.com/comalice/mvux/sub"
	"github.com/comalice/mvux/testutil"
)

type size struct{ W, H int }

func TestTerminalEventsReachSubscriptions(t *testing.T) {
	reg := sub.NewRegistry()
	rec := testutil.NewRecorder[string]()
	resized := testutil.NewRecorder[size]()

	keys := sub.On(EventKeyDown, decode.String(), func(k string) string { return k })
	sizes := sub.On(EventResize, decode.Map2(decode.Field("width", decode.Int()), decode.Field("height", decode.Int()),
		func(w, h int) size { return size{w, h} }), func(s size) size { return s })
	keys.Init(reg, rec.Dispatch)
	sizes.Init(reg, resized.Dispatch)
	defer keys.Release()
	defer sizes.Release()

	m := model{h: New(reg.Target().(sub.Emitter))}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	if diff := cmp.Diff([]string{"a", "enter"}, rec.Messages()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]size{{80, 24}}, resized.Messages()); diff != "" {
		t.Errorf("sizes (-want +got):\n%s", diff)
	}
}

type nopEmitter struct{ n int }

func (e *nopEmitter) Emit(string, any) { e.n++ }

func TestQuitKeys(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		msg  tea.KeyMsg
		quit bool
	}{
		{"q", nil, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, true},
		{"ctrl+c", nil, tea.KeyMsg{Type: tea.KeyCtrlC}, true},
		{"x", nil, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, false},
		{"custom esc", []Option{WithQuitKeys("esc")}, tea.KeyMsg{Type: tea.KeyEsc}, true},
		{"custom q", []Option{WithQuitKeys("esc")}, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			em := &nopEmitter{}
			_, cmd := model{h: New(em, tt.opts...)}.Update(tt.msg)
			quit := cmd != nil
			if quit {
				_, quit = cmd().(tea.QuitMsg)
			}
			if quit != tt.quit {
				t.Errorf("quit = %v, want %v", quit, tt.quit)
			}
			if !quit && em.n != 1 {
				t.Errorf("key not emitted")
			}
		})
	}
}

func TestRenderAndRun(t *testing.T) {
	h := New(&nopEmitter{}, WithProgramOptions(tea.WithInput(nil), tea.WithOutput(io.Discard)))
	h.Render("hello")
	if got := (model{h: h}).View(); got != "hello" {
		t.Fatalf("View() = %q", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	h.Render("world")
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if h.View() != "world" {
		t.Errorf("View() = %q", h.View())
	}
}

func TestRendersFoldWhileRepaintQueued(t *testing.T) {
	h := New(&nopEmitter{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Never run, so every Send stays blocked like a stalled terminal.
	stalled := tea.NewProgram(model{h: h}, tea.WithContext(ctx), tea.WithInput(nil), tea.WithOutput(io.Discard))
	h.mu.Lock()
	h.prog = stalled
	h.mu.Unlock()

	before := runtime.NumGoroutine()
	for i := 0; i < 1000; i++ {
		h.Render("frame")
	}
	if after := runtime.NumGoroutine(); after > before+5 {
		t.Errorf("goroutines before=%d after 1000 renders=%d", before, after)
	}
	if !h.repaintPending.Load() {
		t.Fatal("no repaint queued")
	}

	(model{h: h}).Update(repaintMsg{})
	if h.repaintPending.Load() {
		t.Error("handled repaint left the flag set")
	}
}
