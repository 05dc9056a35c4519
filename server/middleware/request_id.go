package middleware

import (
	"context"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// GetRequestID extracts the request ID from a context, empty when none
// was set.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		return reqID
	}
	return ""
}

// SetRequestID stores the request ID in the context.
func SetRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}
