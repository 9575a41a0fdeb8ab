package logger

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/redact"
)

// sensitiveKeys are attribute keys whose string values pass through redact.String.
var sensitiveKeys = map[string]bool{
	"error":      true,
	"err":        true,
	"panic":      true,
	"dsn":        true,
	"url":        true,
	"auth_error": true,
}

// RedactingHandler wraps another slog.Handler and scrubs the values of
// error-like attributes before delegating.
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler wraps h.
func NewRedactingHandler(h slog.Handler) *RedactingHandler {
	return &RedactingHandler{handler: h}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		scrubbed[i] = redactAttr(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(scrubbed)}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

func redactAttr(a slog.Attr) slog.Attr {
	if !sensitiveKeys[a.Key] {
		return a
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, redact.String(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, redact.Error(err))
		}
		return slog.Any(a.Key, v.Any())
	default:
		return a
	}
}
