package sub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	maxMessageSize    = 1 << 20
	reconnectInterval = 500 * time.Millisecond
	maxReconnectDelay = 30 * time.Second
	maxBackoffShift   = 6
)

// ErrNotConnected is returned by WriteSocket when no connection to the URL is
// currently open.
var ErrNotConnected = errors.New("websocket not connected")

// WebSocket subscribes to text messages received from url. All subscribers to
// the same url share one connection, which is redialed with backoff when it
// drops and closed when the last subscriber releases.
func WebSocket[Msg any](url string, f func(string) Msg) Sub[Msg] {
	return newLeaf("websocket", url, openSocket(url), func(_ *Registry, payload any) (Msg, bool) {
		return f(payload.(string)), true
	})
}

// socket is the shared connection for one url.
type socket struct {
	url    string
	r      *Registry
	emit   func(any)
	cancel context.CancelFunc

	mu   sync.Mutex
	conn *websocket.Conn
}

func openSocket(url string) opener {
	return func(r *Registry, emit func(any)) func() {
		ctx, cancel := context.WithCancel(context.Background())
		s := &socket{url: url, r: r, emit: emit, cancel: cancel}
		r.mu.Lock()
		r.socks[url] = s
		r.mu.Unlock()

		done := make(chan struct{})
		go func() {
			defer close(done)
			s.run(ctx)
		}()
		return func() {
			r.mu.Lock()
			if r.socks[url] == s {
				delete(r.socks, url)
			}
			r.mu.Unlock()
			cancel()
			s.mu.Lock()
			if s.conn != nil {
				s.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				s.conn.Close()
			}
			s.mu.Unlock()
			<-done
		}
	}
}

func (s *socket) run(ctx context.Context) {
	attempts := 0
	for ctx.Err() == nil {
		conn, _, err := s.r.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			attempts++
			delay := reconnectInterval * time.Duration(1<<uint(min(attempts-1, maxBackoffShift)))
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
			s.r.logger.Warn("websocket dial failed", "url", s.url, "attempt", attempts, "retry_in", delay, "err", err)
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return
			}
		}
		attempts = 0

		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conn = conn
		s.mu.Unlock()
		s.r.logger.Debug("websocket connected", "url", s.url)

		s.read(conn)

		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
		if ctx.Err() == nil {
			s.r.logger.Debug("websocket disconnected, redialing", "url", s.url)
		}
	}
}

func (s *socket) read(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.r.logger.Warn("websocket read failed", "url", s.url, "err", err)
			}
			return
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			s.emit(string(data))
		}
	}
}

func (s *socket) write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// WriteSocket sends text over the shared connection to url.
func (r *Registry) WriteSocket(url, text string) error {
	r.mu.Lock()
	s, ok := r.socks[url]
	r.mu.Unlock()
	if !ok {
		return ErrNotConnected
	}
	return s.write(text)
}
