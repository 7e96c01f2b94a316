package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithRequest derives a logger tagged with the request id and stores it in ctx.
// An empty id leaves base untagged.
func WithRequest(ctx context.Context, base *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	l := base
	if requestID != "" {
		l = base.With(zap.String("request_id", requestID))
	}
	return context.WithValue(ctx, ctxKey{}, l), l
}

// With adds fields to the logger carried by ctx, e.g. the department a handler searches for.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, ctxKey{}, FromContext(ctx).With(fields...))
}

// FromContext returns the request logger, or a no-op logger outside a request.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
