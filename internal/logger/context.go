package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	storeIDKey   ctxKey = "store_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithStoreID tags every log line written through FromCtx with the store
// the request operates on.
func WithStoreID(ctx context.Context, storeID string) context.Context {
	return context.WithValue(ctx, storeIDKey, storeID)
}

func StoreIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(storeIDKey).(string); ok {
		return v
	}
	return ""
}

// FromCtx returns the global logger enriched with request_id and store_id
// when the context carries them.
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if ctx == nil {
		return l
	}

	var fields []zap.Field
	if reqID := RequestIDFrom(ctx); reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}
	if storeID := StoreIDFrom(ctx); storeID != "" {
		fields = append(fields, zap.String("store_id", storeID))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
