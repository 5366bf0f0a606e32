package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/htmlflow/internal/handlers"
	"github.com/serroba/htmlflow/internal/messaging"
	"github.com/serroba/htmlflow/internal/ratelimit"
	"github.com/serroba/htmlflow/internal/usage"
	"go.uber.org/zap"
)

// Detail messages returned with 429 responses.
const (
	msgNoIdentity = "Client IP address not found."
)

// QuotaGate is the part of ratelimit.Limiter the middleware depends on.
type QuotaGate interface {
	Decide(ctx context.Context, callerID string) (*ratelimit.Decision, error)
	Status(ctx context.Context, callerID string) (*ratelimit.Status, error)
	Limit() int
}

// QuotaOptions configures the quota middleware.
type QuotaOptions struct {
	// Identity resolves the caller address. Defaults to ClientIdentity(false).
	Identity IdentityFunc
	// FailOpen admits enforced requests when the counter store fails
	// instead of answering 503.
	FailOpen bool
	// Publish receives one event per enforcement decision. Defaults to a no-op.
	Publish messaging.Publish[usage.QuotaDecisionEvent]
	// Now stamps decision events. Defaults to time.Now.
	Now func() time.Time
}

// Quota returns a Huma middleware that applies the daily quota to operations
// carrying ratelimit.EndpointConfig metadata:
//   - ModeEnforce runs the gate before the handler and rejects with 429 once
//     the caller's quota is used up
//   - ModeStatus stores the caller's ratelimit.Status in the request context
//     (see handlers.QuotaStatusFromContext) without consuming quota
//
// Operations without metadata pass through untouched.
func Quota(
	api huma.API,
	gate QuotaGate,
	opts QuotaOptions,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	if opts.Identity == nil {
		opts.Identity = ClientIdentity(false)
	}

	if opts.Publish == nil {
		opts.Publish = messaging.NopPublish[usage.QuotaDecisionEvent]()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	q := &quota{api: api, gate: gate, opts: opts, logger: logger}

	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)
		if cfg == nil {
			next(ctx)

			return
		}

		switch cfg.Mode {
		case ratelimit.ModeEnforce:
			q.enforce(ctx, next)
		case ratelimit.ModeStatus:
			q.status(ctx, next)
		default:
			logger.Error("unknown quota mode",
				zap.String("path", getOperationPath(ctx)), zap.String("mode", string(cfg.Mode)))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error")
		}
	}
}

type quota struct {
	api    huma.API
	gate   QuotaGate
	opts   QuotaOptions
	logger *zap.Logger
}

func (q *quota) enforce(ctx huma.Context, next func(huma.Context)) {
	path := getOperationPath(ctx)
	caller := q.opts.Identity(ctx)

	decision, err := q.gate.Decide(ctx.Context(), caller)
	if err != nil {
		if q.opts.FailOpen && !errors.Is(err, ratelimit.ErrNoIdentity) && !errors.Is(err, ratelimit.ErrNotInitialized) {
			q.logger.Warn("quota check failed, admitting request",
				zap.String("path", path), zap.String("client_ip", caller), zap.Error(err))
			next(ctx)

			return
		}

		q.writeGateError(ctx, path, err)

		return
	}

	event := usage.NewQuotaDecisionEvent(caller, path, decision, q.opts.Now())
	if err := q.opts.Publish(ctx.Context(), event); err != nil {
		q.logger.Error("failed to publish quota decision",
			zap.String("id", event.ID),
			zap.Error(err),
		)
	}

	if !decision.Allowed() {
		q.logger.Warn("daily quota exceeded",
			zap.String("path", path),
			zap.String("method", ctx.Method()),
			zap.String("client_ip", caller),
			zap.Int("requests_made", decision.RequestsMade),
			zap.Int("limit", q.gate.Limit()),
		)

		exceeded := &ratelimit.QuotaExceededError{Limit: q.gate.Limit(), Made: decision.RequestsMade}
		_ = huma.WriteErr(q.api, ctx, http.StatusTooManyRequests, exceeded.Error())

		return
	}

	if decision.Outcome == ratelimit.OutcomeAllowListed {
		q.logger.Debug("allow-listed caller bypassed quota",
			zap.String("path", path), zap.String("client_ip", caller))
	} else {
		ctx.SetHeader("X-RateLimit-Limit", strconv.Itoa(q.gate.Limit()))
		ctx.SetHeader("X-RateLimit-Remaining", strconv.Itoa(decision.RequestsRemaining))
	}

	next(ctx)
}

func (q *quota) status(ctx huma.Context, next func(huma.Context)) {
	path := getOperationPath(ctx)

	status, err := q.gate.Status(ctx.Context(), q.opts.Identity(ctx))
	if err != nil {
		q.writeGateError(ctx, path, err)

		return
	}

	ctx = huma.WithContext(ctx, handlers.ContextWithQuotaStatus(ctx.Context(), status))

	next(ctx)
}

// writeGateError maps limiter errors that are not quota denials to responses.
func (q *quota) writeGateError(ctx huma.Context, path string, err error) {
	switch {
	case errors.Is(err, ratelimit.ErrNoIdentity):
		q.logger.Warn("client address not found", zap.String("path", path))
		_ = huma.WriteErr(q.api, ctx, http.StatusTooManyRequests, msgNoIdentity)
	case errors.Is(err, ratelimit.ErrNotInitialized):
		q.logger.Error("quota check before store session initialization", zap.String("path", path), zap.Error(err))
		_ = huma.WriteErr(q.api, ctx, http.StatusInternalServerError, "internal server error")
	default:
		q.logger.Error("quota check failed", zap.String("path", path), zap.Error(err))
		_ = huma.WriteErr(q.api, ctx, http.StatusServiceUnavailable, "rate limit store unavailable")
	}
}

// getOperationPath extracts the path from the operation, if available.
func getOperationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
