// Package net holds request scoped context helpers shared by the transports
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"

	"vdyp/internal/platform/logger"
)

// WithRequest stores the request id where chi and the request scoped logger read it
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	return logger.WithRequest(ctx, reqID)
}

// RequestID returns the request id on ctx, or ""
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }
