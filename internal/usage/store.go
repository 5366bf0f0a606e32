package usage

import "context"

// Store defines the interface for persisting quota decision events.
// Implementations must tolerate redelivery of an event with the same ID.
type Store interface {
	SaveQuotaDecision(ctx context.Context, event *QuotaDecisionEvent) error
}
