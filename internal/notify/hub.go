package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrHubClosed is returned by Publish and Broadcast after Close.
var ErrHubClosed = errors.New("notification hub is closed")

// Hub routes events to live sessions. It is safe for concurrent use.
type Hub struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[*Session]map[string]struct{} // session -> joined subjects
	groups   map[string]map[*Session]struct{} // subject -> sessions
	closed   bool
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:   logger.With(slog.String("component", "notify_hub")),
		sessions: make(map[*Session]map[string]struct{}),
		groups:   make(map[string]map[*Session]struct{}),
	}
}

// Register adds a connected session. A session registered after Close is
// closed immediately.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		s.Close()
		return
	}
	if _, ok := h.sessions[s]; !ok {
		h.sessions[s] = make(map[string]struct{})
	}
	h.logger.Debug("session registered", slog.String("session_id", s.ID()))
}

// Unregister removes the session from every group and closes its outbox.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	h.removeLocked(s)
	h.mu.Unlock()

	s.Close()
	h.logger.Debug("session unregistered", slog.String("session_id", s.ID()))
}

func (h *Hub) removeLocked(s *Session) {
	subjects, ok := h.sessions[s]
	if !ok {
		return
	}
	for subject := range subjects {
		group := h.groups[subject]
		delete(group, s)
		if len(group) == 0 {
			delete(h.groups, subject)
		}
	}
	delete(h.sessions, s)
}

// Subscribe joins a registered session to a subject's group. A session may
// join several subjects. Unknown sessions are ignored.
func (h *Hub) Subscribe(subjectID string, s *Session) {
	if subjectID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subjects, ok := h.sessions[s]
	if !ok {
		return
	}
	subjects[subjectID] = struct{}{}

	group, ok := h.groups[subjectID]
	if !ok {
		group = make(map[*Session]struct{})
		h.groups[subjectID] = group
	}
	group[s] = struct{}{}

	h.logger.Debug("session joined subject",
		slog.String("session_id", s.ID()),
		slog.String("subject_id", subjectID))
}

// Publish sends an event to every session in the subject's group. Sessions
// that cannot accept the event drop it.
func (h *Hub) Publish(ctx context.Context, subjectID, event string, payload any) error {
	frame, err := encodeEnvelope(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}
	for s := range h.groups[subjectID] {
		h.deliver(ctx, s, event, frame)
	}
	return nil
}

// Broadcast sends an event to every connected session.
func (h *Hub) Broadcast(ctx context.Context, event string, payload any) error {
	frame, err := encodeEnvelope(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}
	for s := range h.sessions {
		h.deliver(ctx, s, event, frame)
	}
	return nil
}

func (h *Hub) deliver(ctx context.Context, s *Session, event string, frame []byte) {
	if err := s.Enqueue(frame); err != nil {
		h.logger.DebugContext(ctx, "event dropped",
			slog.String("session_id", s.ID()),
			slog.String("event", event),
			slog.String("reason", err.Error()))
	}
}

// SessionCount returns the number of registered sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// GroupSize returns the number of sessions that joined subjectID.
func (h *Hub) GroupSize(subjectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[subjectID])
}

// Close unregisters every session and rejects further events.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
		h.removeLocked(s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	h.logger.Info("notification hub closed", slog.Int("sessions", len(sessions)))
}
