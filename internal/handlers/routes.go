package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/htmlflow/internal/ratelimit"
)

// RegisterRoutes registers the conversion and quota routes with their quota mode.
func RegisterRoutes(api huma.API, convert *ConvertHandler, quota *QuotaHandler) {
	// POST /convert - consumes one request of the caller's daily quota
	huma.Register(api, huma.Operation{
		OperationID: "convert-markdown",
		Method:      http.MethodPost,
		Path:        "/convert",
		Summary:     "Convert markdown to HTML",
		Description: "Converts pseudo-markdown into a self-contained HTML document. Limited per caller per day.",
		Tags:        []string{"Convert"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Mode: ratelimit.ModeEnforce},
		},
		Errors: []int{http.StatusTooManyRequests, http.StatusServiceUnavailable},
	}, convert.Convert)

	// GET /quota - read-only view of the caller's quota
	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/quota",
		Summary:     "Get quota status",
		Description: "Reports how many requests the caller has left today without consuming one.",
		Tags:        []string{"Quota"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Mode: ratelimit.ModeStatus},
		},
	}, quota.GetQuota)
}
