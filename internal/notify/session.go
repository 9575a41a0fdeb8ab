package notify

import (
	"errors"
	"fmt"
	"sync"
)

// Errors returned by Session.Enqueue.
var (
	ErrSessionClosed = errors.New("session is closed")
	ErrOutboxFull    = errors.New("session outbox is full")
)

// Session is one live client connection. Its outbox is a bounded FIFO;
// Enqueue never blocks.
type Session struct {
	id     string
	outbox chan []byte

	mu     sync.Mutex
	closed bool
}

// NewSession creates a session whose outbox holds up to buffer frames.
func NewSession(id string, buffer int) *Session {
	if buffer < 1 {
		buffer = 1
	}
	return &Session{
		id:     id,
		outbox: make(chan []byte, buffer),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Enqueue appends a frame to the outbox. It fails immediately when the
// session is closed or the outbox is full.
func (s *Session) Enqueue(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	select {
	case s.outbox <- frame:
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrOutboxFull, cap(s.outbox))
	}
}

// Outbox returns the channel drained by the session's writer. It is closed
// when the session closes.
func (s *Session) Outbox() <-chan []byte {
	return s.outbox
}

// Close marks the session closed and closes the outbox. Frames already
// queued remain readable. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.outbox)
	}
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
