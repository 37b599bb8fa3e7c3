package mvux

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/comalice/mvux/command"
	"github.com/comalice/mvux/sub"
	"github.com/comalice/mvux/task"
	"github.com/comalice/mvux/testutil"
)

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

type trace struct {
	mu     sync.Mutex
	events []string
}

func (tr *trace) add(format string, args ...any) {
	tr.mu.Lock()
	tr.events = append(tr.events, fmt.Sprintf(format, args...))
	tr.mu.Unlock()
}

func (tr *trace) get() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.events...)
}

func counter() App[int, string, string] {
	return App[int, string, string]{
		Init: func() (int, command.Cmd[string]) { return 0, command.None[string]() },
		Update: func(msg string, n int) (int, command.Cmd[string]) {
			if msg == "inc" {
				return n + 1, command.None[string]()
			}
			return n, command.None[string]()
		},
		View: func(_ Dispatcher[string], n int) string { return fmt.Sprint("count=", n) },
	}
}

func startProgram[Model, Msg, View any](t *testing.T, app App[Model, Msg, View], opts ...Option) *Program[Model, Msg, View] {
	t.Helper()
	p, err := New(app, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(p.Stop)
	return p
}

func TestNewRejectsInvalidApps(t *testing.T) {
	if _, err := New(App[int, string, string]{}); !errors.Is(err, ErrInvalidApp) {
		t.Errorf("empty app: err = %v", err)
	}
	_, err := New(counter(), WithRenderer(func(int) {}))
	if !errors.Is(err, ErrInvalidApp) {
		t.Errorf("mismatched renderer: err = %v", err)
	}
}

func TestStartLifecycle(t *testing.T) {
	p, err := New(counter())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v", err)
	}
	p.Stop()
	p.Stop()
	<-p.Done()
	if err := p.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start after Stop = %v", err)
	}

	q, _ := New(counter())
	q.Stop()
	select {
	case <-q.Done():
	default:
		t.Error("Done not closed after stopping an unstarted program")
	}
}

func TestDispatchUpdatesModelAndRenders(t *testing.T) {
	var mu sync.Mutex
	var views []string
	p := startProgram(t, counter(), WithRenderer(func(v string) {
		mu.Lock()
		views = append(views, v)
		mu.Unlock()
	}))

	for i := 0; i < 3; i++ {
		p.Dispatch("inc")
	}
	waitUntil(t, "three increments", func() bool { return p.Model() == 3 })

	mu.Lock()
	defer mu.Unlock()
	want := []string{"count=0", "count=1", "count=2", "count=3"}
	if diff := cmp.Diff(want, views); diff != "" {
		t.Errorf("views (-want +got):\n%s", diff)
	}
}

func TestDispatchBeforeStartIsQueued(t *testing.T) {
	p, _ := New(counter())
	p.Dispatch("inc")
	p.Dispatch("inc")
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()
	waitUntil(t, "queued messages", func() bool { return p.Model() == 2 })
}

func TestInitialCommandRuns(t *testing.T) {
	app := counter()
	app.Init = func() (int, command.Cmd[string]) {
		return 10, command.Batch(command.Message("inc"), command.Perform(task.Succeed[task.Never]("inc"), func(s string) string { return s }))
	}
	p := startProgram(t, app)
	waitUntil(t, "initial command", func() bool { return p.Model() == 12 })
}

func TestConcurrentDispatchesAreSerialized(t *testing.T) {
	p := startProgram(t, counter())
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				p.Dispatch("inc")
			}
		}()
	}
	wg.Wait()
	waitUntil(t, "2000 increments", func() bool { return p.Model() == 2000 })
}

func TestStepCompletesBeforeNextUpdate(t *testing.T) {
	tr := &trace{}
	slow := task.Map(task.Sleep[task.Never](50*time.Millisecond), func(struct{}) string { return "done" })
	app := App[int, string, string]{
		Init: func() (int, command.Cmd[string]) { return 0, command.None[string]() },
		Update: func(msg string, n int) (int, command.Cmd[string]) {
			tr.add("update %s", msg)
			if msg == "done" {
				return n, command.None[string]()
			}
			return n + 1, command.Perform(slow, func(s string) string { return s })
		},
		Subscriptions: func(n int) sub.Sub[string] {
			tr.add("subscriptions %d", n)
			return sub.Func(func(func(string)) func() {
				tr.add("attach %d", n)
				return func() { tr.add("detach %d", n) }
			})
		},
	}
	p := startProgram(t, app)
	p.Dispatch("m1")
	p.Dispatch("m2")
	waitUntil(t, "both steps", func() bool { return p.Model() == 2 })

	got := tr.get()[:10]
	want := []string{
		"subscriptions 0", "attach 0",
		"update m1", "subscriptions 1", "attach 1", "detach 0",
		"update m2", "subscriptions 2", "attach 2", "detach 1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
}

type ticking struct {
	on    bool
	ticks int
}

func TestSubscriptionsFollowModel(t *testing.T) {
	clock := testutil.NewManualClock(time.Unix(0, 0))
	reg := sub.NewRegistry(sub.WithClock(clock))
	app := App[ticking, string, string]{
		Init: func() (ticking, command.Cmd[string]) { return ticking{on: true}, command.None[string]() },
		Update: func(msg string, m ticking) (ticking, command.Cmd[string]) {
			switch msg {
			case "tick":
				m.ticks++
			case "toggle":
				m.on = !m.on
			}
			return m, command.None[string]()
		},
		Subscriptions: func(m ticking) sub.Sub[string] {
			if !m.on {
				return sub.None[string]()
			}
			return sub.Every(time.Second, func(time.Time) string { return "tick" })
		},
	}
	p := startProgram(t, app, WithRegistry(reg))

	clock.Advance(time.Second)
	waitUntil(t, "first tick", func() bool { return p.Model().ticks == 1 })
	clock.Advance(time.Second)
	waitUntil(t, "second tick", func() bool { return p.Model().ticks == 2 })
	if n := clock.Registrations(); n != 1 {
		t.Errorf("timer registered %d times across steps, want 1", n)
	}

	p.Dispatch("toggle")
	waitUntil(t, "timer teardown", func() bool { return clock.Timers() == 0 })
	clock.Advance(3 * time.Second)

	p.Dispatch("toggle")
	waitUntil(t, "timer restart", func() bool { return clock.Timers() == 1 })
	p.Stop()
	<-p.Done()
	if clock.Timers() != 0 {
		t.Error("Stop did not release subscriptions")
	}
	if got := p.Model().ticks; got != 2 {
		t.Errorf("ticks = %d, want 2", got)
	}
}

func TestStopDropsLaterMessages(t *testing.T) {
	p := startProgram(t, counter())
	p.Dispatch("inc")
	waitUntil(t, "increment", func() bool { return p.Model() == 1 })
	p.Stop()
	<-p.Done()
	p.Dispatch("inc")
	time.Sleep(10 * time.Millisecond)
	if p.Model() != 1 {
		t.Errorf("model changed after Stop: %d", p.Model())
	}
}

func TestContextCancelStops(t *testing.T) {
	p, _ := New(counter())
	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("program still running after cancel")
	}
}

func TestObserverSeesEveryStep(t *testing.T) {
	obs := NewChannelObserver(16)
	p := startProgram(t, counter(), WithObserver(obs), WithID("counter-1"))
	if p.ID() != "counter-1" {
		t.Fatalf("ID = %q", p.ID())
	}
	p.Dispatch("inc")
	p.Dispatch("noop")

	var steps []Step
	for len(steps) < 3 {
		select {
		case s := <-obs.Steps():
			steps = append(steps, s)
		case <-time.After(time.Second):
			t.Fatalf("saw %d steps", len(steps))
		}
	}
	type view struct {
		Seq   uint64
		Msg   any
		Model any
	}
	got := make([]view, len(steps))
	for i, s := range steps {
		if s.ProgramID != "counter-1" || s.Timestamp.IsZero() {
			t.Errorf("step %d: %+v", i, s)
		}
		got[i] = view{s.Seq, s.Msg, s.Model}
	}
	want := []view{{0, nil, 0}, {1, "inc", 1}, {2, "noop", 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("steps (-want +got):\n%s", diff)
	}
}

func TestGeneratedIDsDiffer(t *testing.T) {
	a, _ := New(counter())
	b, _ := New(counter())
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("ids %q and %q", a.ID(), b.ID())
	}
}
