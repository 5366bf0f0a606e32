package handlers

import (
	"context"

	"github.com/serroba/htmlflow/internal/ratelimit"
)

type (
	requestMetaKey struct{}
	quotaStatusKey struct{}
)

// RequestMeta holds HTTP request metadata for logging.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// ContextWithQuotaStatus stores the caller's quota status computed by the quota middleware.
func ContextWithQuotaStatus(ctx context.Context, status *ratelimit.Status) context.Context {
	return context.WithValue(ctx, quotaStatusKey{}, status)
}

// QuotaStatusFromContext returns the quota status stored by the quota middleware, or nil.
func QuotaStatusFromContext(ctx context.Context) *ratelimit.Status {
	status, _ := ctx.Value(quotaStatusKey{}).(*ratelimit.Status)

	return status
}
