package ratelimit

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when a limiter operation runs before the store session exists.
	ErrNotInitialized = errors.New("ratelimit: store session not initialized")

	// ErrNoIdentity is returned when the caller address cannot be determined.
	ErrNoIdentity = errors.New("ratelimit: client address not found")

	// ErrQuotaExceeded is matched by every QuotaExceededError.
	ErrQuotaExceeded = errors.New("ratelimit: daily quota exceeded")

	// ErrStoreUnavailable wraps network or protocol failures of the counter store.
	ErrStoreUnavailable = errors.New("ratelimit: counter store unavailable")

	// ErrRecordNotFound is returned by stores when no record exists for a key.
	ErrRecordNotFound = errors.New("ratelimit: record not found")
)

// QuotaExceededError reports a denied request together with the quota it hit.
type QuotaExceededError struct {
	Limit int
	Made  int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. You can make %d requests per day.", e.Limit)
}

// Is lets errors.Is(err, ErrQuotaExceeded) match.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
