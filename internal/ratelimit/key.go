package ratelimit

import (
	"fmt"
	"time"
	_ "time/tzdata" // day boundaries must not depend on the host zoneinfo
)

// KeyPrefix namespaces every counter key in the store.
const KeyPrefix = "rate_limit:"

// referenceZone is the timezone whose calendar days bound the quota.
var referenceZone = mustLoadLocation("America/Los_Angeles")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("ratelimit: load location %q: %v", name, err))
	}

	return loc
}

// ReferenceZone returns the timezone used for calendar-day boundaries (US Pacific).
func ReferenceZone() *time.Location {
	return referenceZone
}

// DeriveKey builds the counter key for callerID on the calendar day of now
// in the reference timezone.
func DeriveKey(callerID string, now time.Time) string {
	return fmt.Sprintf("%s%s:%s", KeyPrefix, callerID, now.In(referenceZone).Format(time.DateOnly))
}

// EndOfDay returns 23:59:59 of now's calendar day in the reference timezone.
func EndOfDay(now time.Time) time.Time {
	local := now.In(referenceZone)

	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 0, referenceZone)
}
