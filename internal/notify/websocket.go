package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const defaultWriteTimeout = 5 * time.Second

// HandlerOptions configures the WebSocket transport.
type HandlerOptions struct {
	// SessionBuffer is the outbox capacity of each session.
	SessionBuffer int
	// AllowedOrigins are browser origins (e.g. "http://localhost:3000") allowed
	// to connect cross-origin. "*" allows any origin.
	AllowedOrigins []string
	// WriteTimeout bounds a single frame write. Defaults to 5s.
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Handler upgrades HTTP requests to WebSocket sessions registered with a Hub.
type Handler struct {
	hub            *Hub
	sessionBuffer  int
	originPatterns []string
	writeTimeout   time.Duration
	logger         *slog.Logger
}

// NewHandler creates the WebSocket transport for hub.
func NewHandler(hub *Hub, opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Handler{
		hub:            hub,
		sessionBuffer:  opts.SessionBuffer,
		originPatterns: originPatterns(opts.AllowedOrigins),
		writeTimeout:   writeTimeout,
		logger:         logger.With(slog.String("component", "websocket")),
	}
}

// originPatterns converts configured origins to the host patterns the
// websocket library matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}
	return patterns
}

// ServeHTTP accepts the connection and runs the session until either side
// closes it. The client joins subject groups with {"event":"join","data":"<id>"}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept error", slog.String("error", err.Error()))
		return
	}

	session := NewSession(uuid.NewString(), h.sessionBuffer)
	log := h.logger.With(slog.String("session_id", session.ID()))
	h.hub.Register(session)
	log.Info("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, session, log)
	}()

	h.readLoop(ctx, conn, session, log)

	h.hub.Unregister(session)
	cancel()
	<-writerDone
	conn.CloseNow()
	log.Info("client disconnected")
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, session *Session, log *slog.Logger) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var msg Envelope
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug("ignoring malformed client message")
			continue
		}

		switch msg.Event {
		case EventJoin:
			var subjectID string
			if err := json.Unmarshal(msg.Data, &subjectID); err != nil || subjectID == "" {
				log.Debug("ignoring join without subject id")
				continue
			}
			h.hub.Subscribe(subjectID, session)
		default:
			log.Debug("ignoring unknown client event", slog.String("event", msg.Event))
		}
	}
}

// writeLoop is the only writer for conn. It exits when the outbox closes or
// a write fails.
func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, session *Session, log *slog.Logger) {
	for frame := range session.Outbox() {
		wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
		err := conn.Write(wctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			log.Debug("websocket write failed", slog.String("error", err.Error()))
			conn.CloseNow()
			return
		}
	}

	// outbox closed by the hub rather than by our own read loop
	if ctx.Err() == nil {
		_ = conn.Close(websocket.StatusGoingAway, "server closing session")
	}
}
