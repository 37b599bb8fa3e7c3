package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/comalice/mvux"
)

// Entry is one line of a trace.
type Entry struct {
	ProgramID string    `json:"program" yaml:"program"`
	Seq       uint64    `json:"seq" yaml:"seq"`
	Time      time.Time `json:"time" yaml:"time"`
	Msg       *Envelope `json:"msg,omitempty" yaml:"msg,omitempty"`
	Model     any       `json:"model" yaml:"model"`
}

// Tracer is an mvux.Observer that writes every step as a JSON line, with the
// message encoded through a Codec so it can be replayed later.
type Tracer[Msg any] struct {
	msgs   *Codec[Msg]
	logger *slog.Logger

	mu  sync.Mutex
	enc *json.Encoder
}

// NewTracer writes steps to w. A nil logger discards encode failures.
func NewTracer[Msg any](w io.Writer, msgs *Codec[Msg], logger *slog.Logger) *Tracer[Msg] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracer[Msg]{msgs: msgs, logger: logger, enc: json.NewEncoder(w)}
}

// Observe implements mvux.Observer.
func (t *Tracer[Msg]) Observe(s mvux.Step) {
	e := Entry{ProgramID: s.ProgramID, Seq: s.Seq, Time: s.Timestamp, Model: s.Model}
	if msg, ok := s.Msg.(Msg); ok {
		env, err := t.msgs.Encode(msg)
		if err != nil {
			t.logger.Warn("trace: message not encoded", "seq", s.Seq, "err", err)
			return
		}
		e.Msg = &env
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enc.Encode(e); err != nil {
		t.logger.Warn("trace: write failed", "seq", s.Seq, "err", err)
	}
}

// ReadTrace reads a trace written by Tracer and returns its messages in
// order, ready to be dispatched again.
func ReadTrace[Msg any](r io.Reader, msgs *Codec[Msg]) ([]Msg, error) {
	var out []Msg
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	line := 0
	for sc.Scan() {
		line++
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("trace line %d: %w", line, err)
		}
		if e.Msg == nil {
			continue
		}
		m, err := msgs.Decode(*e.Msg)
		if err != nil {
			return out, fmt.Errorf("trace line %d: %w", line, err)
		}
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("read trace: %w", err)
	}
	return out, nil
}
