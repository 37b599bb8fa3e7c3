package snapshot

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/comalice/mvux"
	"github.com/comalice/mvux/command"
	"github.com/comalice/mvux/decode"
)

type shape interface{ area() float64 }

type circle struct {
	R float64 `json:"r"`
}

func (c circle) area() float64 { return 3 * c.R * c.R }

type rect struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r rect) area() float64 { return r.W * r.H }

type triangle struct{}

func (triangle) area() float64 { return 0 }

func shapes() *Codec[shape] {
	c := NewCodec[shape]()
	Register(c, "circle", decode.Map(decode.Field("r", decode.Float()), func(r float64) circle { return circle{R: r} }),
		func(v circle) shape { return v })
	Register(c, "rect", decode.Map2(decode.Field("w", decode.Float()), decode.Field("h", decode.Float()),
		func(w, h float64) rect { return rect{W: w, H: h} }),
		func(v rect) shape { return v })
	return c
}

func TestRoundTripJSON(t *testing.T) {
	c := shapes()
	for _, s := range []shape{circle{R: 2}, rect{W: 3, H: 4}} {
		data, err := c.MarshalJSON(s)
		if err != nil {
			t.Fatalf("MarshalJSON(%v): %v", s, err)
		}
		got, err := c.UnmarshalJSON(data)
		if err != nil {
			t.Fatalf("UnmarshalJSON(%s): %v", data, err)
		}
		if diff := cmp.Diff(s, got); diff != "" {
			t.Errorf("round trip (-want +got):\n%s", diff)
		}
	}

	data, _ := c.MarshalJSON(rect{W: 1, H: 2})
	if string(data) != `{"type":"rect","value":{"h":2,"w":1}}` {
		t.Errorf("envelope = %s", data)
	}
}

func TestRoundTripYAML(t *testing.T) {
	c := shapes()
	data, err := c.MarshalYAML(circle{R: 1.5})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.UnmarshalYAML(data)
	if err != nil {
		t.Fatalf("UnmarshalYAML(%s): %v", data, err)
	}
	if got != (circle{R: 1.5}) {
		t.Errorf("got %v", got)
	}
}

func TestEncodeUnregistered(t *testing.T) {
	_, err := shapes().Encode(triangle{})
	if !errors.Is(err, ErrUnregisteredType) {
		t.Errorf("err = %v, want ErrUnregisteredType", err)
	}
}

func TestDecodeBadValueIsError(t *testing.T) {
	_, err := shapes().Decode(Envelope{Type: "circle", Value: map[string]any{"r": "big"}})
	var de *decode.Error
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want a decode error", err)
	}
	if !strings.Contains(de.Message, "value is not a number") {
		t.Errorf("message = %q", de.Message)
	}
}

func TestDecodeUnknownTagPanics(t *testing.T) {
	defer func() {
		p := recover()
		ue, ok := p.(*UnregisteredError)
		if !ok || ue.Tag != "hexagon" {
			t.Fatalf("recovered %v, want *UnregisteredError for hexagon", p)
		}
	}()
	shapes().Decode(Envelope{Type: "hexagon"})
}

func TestRegisterReplacesTag(t *testing.T) {
	c := shapes()
	Register(c, "circle", decode.Succeed(circle{R: 9}), func(v circle) shape { return v })
	if diff := cmp.Diff([]string{"circle", "rect"}, c.Tags()); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}
	got, _ := c.Decode(Envelope{Type: "circle"})
	if got != (circle{R: 9}) {
		t.Errorf("got %v", got)
	}
}

type msg interface{ isMsg() }

type add struct {
	N int `json:"n"`
}

type reset struct{}

func (add) isMsg()   {}
func (reset) isMsg() {}

func msgCodec() *Codec[msg] {
	c := NewCodec[msg]()
	Register(c, "add", decode.Map(decode.Field("n", decode.Int()), func(n int) add { return add{N: n} }),
		func(v add) msg { return v })
	Register(c, "reset", decode.Succeed(reset{}), func(v reset) msg { return v })
	return c
}

func TestTracerReplay(t *testing.T) {
	var buf bytes.Buffer
	codec := msgCodec()
	app := mvux.App[int, msg, struct{}]{
		Init: func() (int, command.Cmd[msg]) { return 0, command.None[msg]() },
		Update: func(m msg, n int) (int, command.Cmd[msg]) {
			switch m := m.(type) {
			case add:
				return n + m.N, command.None[msg]()
			case reset:
				return 0, command.None[msg]()
			}
			return n, command.None[msg]()
		},
	}

	done := make(chan struct{})
	tracer := NewTracer(&buf, codec, nil)
	var seen uint64
	p, err := mvux.New(app, mvux.WithID("traced"), mvux.WithObserver(mvux.ObserverFunc(func(s mvux.Step) {
		tracer.Observe(s)
		seen = s.Seq
		if seen == 3 {
			close(done)
		}
	})))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	sent := []msg{add{N: 2}, reset{}, add{N: 5}}
	for _, m := range sent {
		p.Dispatch(m)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("saw %d steps", seen)
	}

	replayed, err := ReadTrace(strings.NewReader(buf.String()), codec)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sent, replayed); diff != "" {
		t.Errorf("replayed (-want +got):\n%s", diff)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 4 {
		t.Errorf("trace has %d lines, want 4", lines)
	}
}
