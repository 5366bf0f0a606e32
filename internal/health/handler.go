package health

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/htmlflow/internal/ratelimit"
)

// pingTimeout bounds the store check so a hung Redis cannot stall the probe.
const pingTimeout = 2 * time.Second

// Redis health values reported in Response.
const (
	RedisHealthy       = "healthy"
	RedisUnhealthy     = "unhealthy"
	RedisUninitialized = "uninitialized"
)

// Checker defines the interface for checking counter store health.
// *session.Manager satisfies it and returns ratelimit.ErrNotInitialized
// before the shared session exists.
type Checker interface {
	Ping(ctx context.Context) error
}

// Handler handles health check operations.
type Handler struct {
	redis Checker
}

// NewHandler creates a new health handler.
func NewHandler(redis Checker) *Handler {
	return &Handler{redis: redis}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string `json:"status" enum:"ok,degraded"`
		Redis  string `json:"redis" enum:"healthy,unhealthy,uninitialized"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Redis = RedisHealthy

	err := h.redis.Ping(ctx)

	switch {
	case errors.Is(err, ratelimit.ErrNotInitialized):
		resp.Body.Redis = RedisUninitialized
		resp.Body.Status = "degraded"
	case err != nil:
		resp.Body.Redis = RedisUnhealthy
		resp.Body.Status = "degraded"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Report service and counter store health",
		Tags:        []string{"health"},
	}, h.Check)
}
