package usage

import (
	"context"

	"github.com/serroba/htmlflow/internal/messaging"
	"go.uber.org/zap"
)

// NewRecorder returns a message handler that persists quota decisions into store.
// Events without an ID cannot be deduplicated and are skipped.
func NewRecorder(store Store, logger *zap.Logger) messaging.Handler[QuotaDecisionEvent] {
	return func(ctx context.Context, event *QuotaDecisionEvent) error {
		if event.ID == "" {
			logger.Warn("skipping quota decision without id",
				zap.String("caller_id", event.CallerID),
				zap.String("outcome", event.Outcome),
			)

			return nil
		}

		return store.SaveQuotaDecision(ctx, event)
	}
}
