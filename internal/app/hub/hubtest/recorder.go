// Package hubtest provides an in-memory connection for hub tests.
package hubtest

import (
	"errors"
	"sync"
	"time"

	"github.com/chess-vn/livematch/internal/domains/dtos"
)

// Recorder is a Conn that keeps every message written to it.
type Recorder struct {
	mu       sync.Mutex
	messages []dtos.Message
	closed   bool
}

func (r *Recorder) WriteJSON(v interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, ok := v.(dtos.Message); ok {
		r.messages = append(r.messages, msg)
	}
	return nil
}

func (r *Recorder) SetWriteDeadline(t time.Time) error {
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Recorder) Messages() []dtos.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dtos.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// OfType returns the messages with the given event type, in order.
func (r *Recorder) OfType(eventType string) []dtos.Message {
	var out []dtos.Message
	for _, msg := range r.Messages() {
		if msg.Type == eventType {
			out = append(out, msg)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

// Stalled is a Conn whose writes block until it is closed, like a peer
// that stopped reading.
type Stalled struct {
	once    sync.Once
	closed  chan struct{}
	mu      sync.Mutex
	pending int
}

func NewStalled() *Stalled {
	return &Stalled{closed: make(chan struct{})}
}

func (s *Stalled) WriteJSON(v interface{}) error {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	<-s.closed
	return errors.New("use of closed connection")
}

func (s *Stalled) SetWriteDeadline(t time.Time) error {
	return nil
}

func (s *Stalled) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

// Blocked reports whether a write is stuck on the connection.
func (s *Stalled) Blocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

func (s *Stalled) IsClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
