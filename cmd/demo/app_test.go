package main

import (
	"strings"
	"testing"
	"time"

	"github.com/comalice/mvux/command"
	"github.com/comalice/mvux/sub"
)

func TestUpdate(t *testing.T) {
	d := demo{tick: time.Second}
	m, _ := d.init()

	steps := []msg{keyMsg{"+"}, keyMsg{"+"}, keyMsg{"-"}, tickMsg{}, resizeMsg{80, 24}, rolledMsg{4}}
	for _, s := range steps {
		m, _ = d.update(s, m)
	}
	if m.Count != 1 || m.Ticks != 1 || m.Width != 80 || m.Roll != 4 || m.LastKey != "-" {
		t.Errorf("model = %+v", m)
	}

	_, cmd := d.update(keyMsg{"r"}, m)
	if cmd.Kind() != command.KindTask {
		t.Errorf("roll command kind = %s", cmd.Kind())
	}
}

func TestFeedIsBounded(t *testing.T) {
	d := demo{}
	var m model
	for i := 0; i < maxFeed+3; i++ {
		m, _ = d.update(feedMsg{Text: string(rune('a' + i))}, m)
	}
	if len(m.Feed) != maxFeed || m.Feed[0] != "d" {
		t.Errorf("feed = %v", m.Feed)
	}
}

func TestPauseDropsTicker(t *testing.T) {
	d := demo{tick: time.Second}
	running := d.subscriptions(model{})
	paused := d.subscriptions(model{Paused: true})
	if running.Kind() != sub.KindBatch || paused.Kind() != sub.KindBatch {
		t.Fatalf("kinds %s, %s", running.Kind(), paused.Kind())
	}

	reg := sub.NewRegistry()
	running.Init(reg, func(msg) {})
	if reg.Stats()["every"].Groups != 1 {
		t.Errorf("running stats = %v", reg.Stats())
	}
	sub.Swap(running, paused, reg, func(msg) {})
	if _, ok := reg.Stats()["every"]; ok {
		t.Errorf("ticker survived pause: %v", reg.Stats())
	}
	paused.Release()
}

func TestMessagesRoundTripThroughCodec(t *testing.T) {
	c := msgCodec()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, m := range []msg{tickMsg{At: at}, keyMsg{"x"}, resizeMsg{10, 20}, rolledMsg{3}, feedMsg{"hi"}} {
		data, err := c.MarshalJSON(m)
		if err != nil {
			t.Fatalf("marshal %T: %v", m, err)
		}
		got, err := c.UnmarshalJSON(data)
		if err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if tick, ok := got.(tickMsg); ok {
			if !tick.At.Equal(at) {
				t.Errorf("tick at = %v", tick.At)
			}
			continue
		}
		if got != m {
			t.Errorf("got %#v, want %#v", got, m)
		}
	}
}

func TestViewShowsState(t *testing.T) {
	v := demo{}.view(nil, model{Count: 3, Paused: true, Feed: []string{"hello"}})
	for _, want := range []string{"count", "3", "paused", "hello", "q quit"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
}
