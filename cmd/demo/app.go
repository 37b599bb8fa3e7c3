package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/comalice/mvux"
	"github.com/comalice/mvux/command"
	"github.com/comalice/mvux/decode"
	"github.com/comalice/mvux/snapshot"
	"github.com/comalice/mvux/sub"
	"github.com/comalice/mvux/task"
	"github.com/comalice/mvux/teahost"
)

const maxFeed = 5

// model is the demo's whole state.
type model struct {
	Count   int      `json:"count"`
	Ticks   int      `json:"ticks"`
	Paused  bool     `json:"paused"`
	LastKey string   `json:"last_key"`
	Roll    int      `json:"roll"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Feed    []string `json:"feed"`
}

type msg interface{ isMsg() }

type tickMsg struct {
	At time.Time `json:"at"`
}

type keyMsg struct {
	Key string `json:"key"`
}

type resizeMsg struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type rolledMsg struct {
	N int `json:"n"`
}

type feedMsg struct {
	Text string `json:"text"`
}

func (tickMsg) isMsg()   {}
func (keyMsg) isMsg()    {}
func (resizeMsg) isMsg() {}
func (rolledMsg) isMsg() {}
func (feedMsg) isMsg()   {}

// msgCodec serializes demo messages for the step trace.
func msgCodec() *snapshot.Codec[msg] {
	c := snapshot.NewCodec[msg]()
	snapshot.Register(c, "tick", decode.Map(decode.Field("at", decode.String()), func(s string) tickMsg {
		at, _ := time.Parse(time.RFC3339Nano, s)
		return tickMsg{At: at}
	}), func(m tickMsg) msg { return m })
	snapshot.Register(c, "key", decode.Map(decode.Field("key", decode.String()), func(k string) keyMsg {
		return keyMsg{Key: k}
	}), func(m keyMsg) msg { return m })
	snapshot.Register(c, "resize", resizeDecoder, func(m resizeMsg) msg { return m })
	snapshot.Register(c, "rolled", decode.Map(decode.Field("n", decode.Int()), func(n int) rolledMsg {
		return rolledMsg{N: n}
	}), func(m rolledMsg) msg { return m })
	snapshot.Register(c, "feed", decode.Map(decode.Field("text", decode.String()), func(s string) feedMsg {
		return feedMsg{Text: s}
	}), func(m feedMsg) msg { return m })
	return c
}

var resizeDecoder = decode.Object(func(f *decode.Fields) resizeMsg {
	return resizeMsg{
		Width:  decode.Get(f, "width", decode.Int()),
		Height: decode.Get(f, "height", decode.Int()),
	}
})

type demo struct {
	tick  time.Duration
	wsURL string
}

func (d demo) app() mvux.App[model, msg, string] {
	return mvux.App[model, msg, string]{
		Init:          d.init,
		Update:        d.update,
		View:          d.view,
		Subscriptions: d.subscriptions,
	}
}

func (d demo) init() (model, command.Cmd[msg]) {
	return model{}, roll()
}

func roll() command.Cmd[msg] {
	return command.Perform(task.RandomInt[task.Never](1, 6), func(n int) msg { return rolledMsg{N: n} })
}

func (d demo) update(m msg, mod model) (model, command.Cmd[msg]) {
	switch m := m.(type) {
	case tickMsg:
		mod.Ticks++
	case rolledMsg:
		mod.Roll = m.N
	case resizeMsg:
		mod.Width, mod.Height = m.Width, m.Height
	case feedMsg:
		mod.Feed = append(mod.Feed, m.Text)
		if len(mod.Feed) > maxFeed {
			mod.Feed = mod.Feed[len(mod.Feed)-maxFeed:]
		}
	case keyMsg:
		mod.LastKey = m.Key
		switch m.Key {
		case "+", "up":
			mod.Count++
		case "-", "down":
			mod.Count--
		case "p", " ":
			mod.Paused = !mod.Paused
		case "r":
			return mod, roll()
		}
	}
	return mod, command.None[msg]()
}

func (d demo) subscriptions(mod model) sub.Sub[msg] {
	subs := []sub.Sub[msg]{
		sub.On(teahost.EventKeyDown, decode.String(), func(k string) msg { return keyMsg{Key: k} }),
		sub.On(teahost.EventResize, resizeDecoder, func(r resizeMsg) msg { return r }),
	}
	if !mod.Paused {
		subs = append(subs, sub.Every(d.tick, func(at time.Time) msg { return tickMsg{At: at} }))
	}
	if d.wsURL != "" {
		subs = append(subs, sub.WebSocket(d.wsURL, func(s string) msg { return feedMsg{Text: s} }))
	}
	return sub.Batch(subs...)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

func (d demo) view(_ mvux.Dispatcher[msg], mod model) string {
	state := "running"
	if mod.Paused {
		state = "paused"
	}
	rows := []string{
		titleStyle.Render("mvux demo"),
		fmt.Sprintf("%s %d", labelStyle.Render("count"), mod.Count),
		fmt.Sprintf("%s %d (%s)", labelStyle.Render("ticks"), mod.Ticks, state),
		fmt.Sprintf("%s %d", labelStyle.Render("roll "), mod.Roll),
	}
	if mod.LastKey != "" {
		rows = append(rows, fmt.Sprintf("%s %s", labelStyle.Render("key  "), mod.LastKey))
	}
	if mod.Width > 0 {
		rows = append(rows, fmt.Sprintf("%s %dx%d", labelStyle.Render("size "), mod.Width, mod.Height))
	}
	for _, line := range mod.Feed {
		rows = append(rows, labelStyle.Render("feed ")+" "+line)
	}
	body := boxStyle.Render(strings.Join(rows, "\n"))
	return body + "\n" + helpStyle.Render("+/- count  p pause  r roll  q quit")
}
