// Package usage records quota decisions as events for offline analysis.
package usage

import (
	"time"

	"github.com/google/uuid"
	"github.com/serroba/htmlflow/internal/ratelimit"
)

// TopicQuotaDecision is the topic quota decisions are published on.
const TopicQuotaDecision = "quota.decision"

// QuotaDecisionEvent represents one run of the enforcement gate.
type QuotaDecisionEvent struct {
	ID           string    `json:"id"`
	CallerID     string    `json:"callerId"`
	Outcome      string    `json:"outcome"`
	RequestsMade int       `json:"requestsMade"`
	Limit        int       `json:"limit"`
	Path         string    `json:"path"`
	DecidedAt    time.Time `json:"decidedAt"`
}

// NewQuotaDecisionEvent builds an event for decision with a fresh ID.
func NewQuotaDecisionEvent(callerID, path string, decision *ratelimit.Decision, at time.Time) *QuotaDecisionEvent {
	return &QuotaDecisionEvent{
		ID:           uuid.NewString(),
		CallerID:     callerID,
		Outcome:      string(decision.Outcome),
		RequestsMade: decision.RequestsMade,
		Limit:        ratelimit.DailyRequestLimit,
		Path:         path,
		DecidedAt:    at,
	}
}
