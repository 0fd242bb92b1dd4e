package logging

import (
	"context"
	"log/slog"
	"strings"
)

type sessionKey struct{}

// WithSessionID tags ctx with a disc-event session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionIDFromContext returns the session identifier stored in ctx.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns a logger carrying the session id found in ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := SessionIDFromContext(ctx); ok {
		return logger.With(String(FieldSessionID, id))
	}
	return logger
}
