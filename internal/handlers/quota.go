package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// QuotaHandler exposes the caller's quota status for informational displays.
type QuotaHandler struct{}

// NewQuotaHandler creates a new quota status handler.
func NewQuotaHandler() *QuotaHandler {
	return &QuotaHandler{}
}

// GetQuota returns the status computed by the quota middleware.
func (h *QuotaHandler) GetQuota(ctx context.Context, _ *struct{}) (*QuotaResponse, error) {
	status := QuotaStatusFromContext(ctx)
	if status == nil {
		return nil, huma.Error500InternalServerError("quota status unavailable")
	}

	resp := &QuotaResponse{}
	resp.Body.CallerID = status.CallerID
	resp.Body.RequestsMade = status.RequestsMade
	resp.Body.RequestsRemaining = status.RequestsRemaining
	resp.Body.InitialQuota = status.RequestsRemaining
	resp.Body.ResetTime = status.ResetTime
	resp.Body.IsAllowListed = status.IsAllowListed

	return resp, nil
}
