package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

type reqIDKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithRequestID records reqID on ctx and tags the context logger with it.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	ctx = context.WithValue(ctx, reqIDKey{}, reqID)
	return WithContext(ctx, FromContext(ctx).With("req_id", reqID))
}

// RequestIDFromContext returns the id set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey{}).(string)
	return id
}
