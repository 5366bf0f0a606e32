package store

import (
	"context"

	"github.com/serroba/htmlflow/internal/usage"
	"go.uber.org/zap"
)

// Noop is a usage.Store that only logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new log-only usage store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveQuotaDecision(_ context.Context, event *usage.QuotaDecisionEvent) error {
	n.logger.Info("quota decision received",
		zap.String("id", event.ID),
		zap.String("callerId", event.CallerID),
		zap.String("outcome", event.Outcome),
		zap.Int("requestsMade", event.RequestsMade),
		zap.String("path", event.Path),
		zap.Time("decidedAt", event.DecidedAt),
	)

	return nil
}

// Compile-time check.
var _ usage.Store = (*Noop)(nil)
