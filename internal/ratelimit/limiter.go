package ratelimit

import (
	"context"
	"errors"
	"time"
)

// DailyRequestLimit is the number of requests a caller may make per calendar day.
const DailyRequestLimit = 10

// allowListedResetTime is reported instead of a timestamp for exempt callers.
const allowListedResetTime = "N/A (Allow-listed IP)"

// Outcome classifies an enforcement decision.
type Outcome string

const (
	OutcomeAllowed     Outcome = "allowed"
	OutcomeDenied      Outcome = "denied"
	OutcomeAllowListed Outcome = "allow_listed"
)

// Decision is the result of running the enforcement gate for one request.
type Decision struct {
	Outcome Outcome
	// RequestsMade is the count after this request was recorded (or the count
	// that caused the denial). -1 for allow-listed callers.
	RequestsMade int
	// RequestsRemaining is DailyRequestLimit - RequestsMade. -1 for allow-listed callers.
	RequestsRemaining int
}

// Allowed reports whether the request may proceed.
func (d *Decision) Allowed() bool {
	return d.Outcome != OutcomeDenied
}

// Status is the read-only view of a caller's quota for informational displays.
type Status struct {
	CallerID          string `json:"callerId"`
	RequestsMade      int    `json:"requestsMade"`
	RequestsRemaining int    `json:"requestsRemaining"`
	ResetTime         string `json:"resetTime"`
	IsAllowListed     bool   `json:"isAllowListed"`
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the wall clock used for day boundaries.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// Limiter enforces a fixed daily request quota per caller address.
//
// Counts are updated with a read followed by a write, not an atomic increment.
// Two concurrent allowed requests from the same caller can both read the same
// count and each write count+1, so one request goes unrecorded.
type Limiter struct {
	stores    StoreProvider
	allowList AllowList
	now       func() time.Time
}

// NewLimiter creates a limiter over the shared counter store.
func NewLimiter(stores StoreProvider, allowList AllowList, opts ...Option) *Limiter {
	l := &Limiter{
		stores:    stores,
		allowList: allowList,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Limit returns the daily quota.
func (l *Limiter) Limit() int {
	return DailyRequestLimit
}

// AllowListed reports whether callerID bypasses the quota.
func (l *Limiter) AllowListed(callerID string) bool {
	return l.allowList.Contains(callerID)
}

// Key returns the counter key for callerID on the current day.
func (l *Limiter) Key(callerID string) string {
	return DeriveKey(callerID, l.now())
}

// CheckLimits returns how many requests callerID made today and how many remain.
// remaining is negative once the caller is over quota. It never writes.
func (l *Limiter) CheckLimits(ctx context.Context, callerID string) (made, remaining int, err error) {
	store, err := l.stores.Store()
	if err != nil {
		return 0, 0, err
	}

	record, err := store.Get(ctx, l.Key(callerID))

	switch {
	case errors.Is(err, ErrRecordNotFound):
		made = 0
	case err != nil:
		return 0, 0, err
	default:
		made = record.RequestsMade
	}

	return made, DailyRequestLimit - made, nil
}

// IncrementCount records one more request for callerID today and resets the
// record's expiry to RecordTTL.
func (l *Limiter) IncrementCount(ctx context.Context, callerID string) error {
	store, err := l.stores.Store()
	if err != nil {
		return err
	}

	made, _, err := l.CheckLimits(ctx, callerID)
	if err != nil {
		return err
	}

	return store.Set(ctx, l.Key(callerID), &Record{RequestsMade: made + 1}, RecordTTL)
}

// Decide runs the enforcement gate and reports the outcome. A denial is a
// Decision with OutcomeDenied and a nil error; errors are reserved for a
// missing identity, a missing session and store failures.
func (l *Limiter) Decide(ctx context.Context, callerID string) (*Decision, error) {
	if callerID == "" {
		return nil, ErrNoIdentity
	}

	if l.AllowListed(callerID) {
		return &Decision{Outcome: OutcomeAllowListed, RequestsMade: -1, RequestsRemaining: -1}, nil
	}

	made, remaining, err := l.CheckLimits(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if made >= DailyRequestLimit {
		return &Decision{Outcome: OutcomeDenied, RequestsMade: made, RequestsRemaining: remaining}, nil
	}

	if err := l.IncrementCount(ctx, callerID); err != nil {
		return nil, err
	}

	return &Decision{
		Outcome:           OutcomeAllowed,
		RequestsMade:      made + 1,
		RequestsRemaining: DailyRequestLimit - (made + 1),
	}, nil
}

// RateLimit is the enforcement gate. It returns nil when the request may
// proceed and a *QuotaExceededError once the caller's quota is used up.
func (l *Limiter) RateLimit(ctx context.Context, callerID string) error {
	decision, err := l.Decide(ctx, callerID)
	if err != nil {
		return err
	}

	if !decision.Allowed() {
		return &QuotaExceededError{Limit: DailyRequestLimit, Made: decision.RequestsMade}
	}

	return nil
}

// Status reports callerID's quota without recording a request.
func (l *Limiter) Status(ctx context.Context, callerID string) (*Status, error) {
	if callerID == "" {
		return nil, ErrNoIdentity
	}

	if l.AllowListed(callerID) {
		return &Status{
			CallerID:          callerID,
			RequestsMade:      -1,
			RequestsRemaining: -1,
			ResetTime:         allowListedResetTime,
			IsAllowListed:     true,
		}, nil
	}

	made, remaining, err := l.CheckLimits(ctx, callerID)
	if err != nil {
		return nil, err
	}

	return &Status{
		CallerID:          callerID,
		RequestsMade:      made,
		RequestsRemaining: remaining,
		ResetTime:         EndOfDay(l.now()).Format(time.RFC3339),
		IsAllowListed:     false,
	}, nil
}
