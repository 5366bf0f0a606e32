package ratelimit

import "github.com/danielgtaylor/huma/v2"

// MetadataKey is the key used to store quota config in operation metadata.
const MetadataKey = "quota"

// Mode selects how the quota middleware treats an operation.
type Mode string

const (
	// ModeEnforce consumes one request of the caller's daily quota and rejects
	// the request once the quota is used up.
	ModeEnforce Mode = "enforce"
	// ModeStatus computes the caller's quota status for the handler without
	// consuming or rejecting.
	ModeStatus Mode = "status"
)

// EndpointConfig defines per-endpoint quota configuration.
// This is attached to Huma operations via the Metadata field; operations
// without it are not touched by the quota middleware.
type EndpointConfig struct {
	Mode Mode
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata, if present.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
