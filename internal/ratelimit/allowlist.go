package ratelimit

import (
	"net/netip"
	"strings"
)

// AllowList is a static set of caller addresses exempt from quota enforcement.
type AllowList struct {
	addrs map[string]struct{}
}

// NewAllowList builds an allow list from already validated addresses.
func NewAllowList(addrs ...string) AllowList {
	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		set[canonicalAddr(a)] = struct{}{}
	}

	return AllowList{addrs: set}
}

// ParseAllowList parses a comma-separated list of IP addresses.
// Blank entries are ignored. Entries that are not IP addresses are left out of
// the list and returned in rejected so the caller can report them.
func ParseAllowList(raw string) (list AllowList, rejected []string) {
	var valid []string

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if _, err := netip.ParseAddr(entry); err != nil {
			rejected = append(rejected, entry)

			continue
		}

		valid = append(valid, entry)
	}

	return NewAllowList(valid...), rejected
}

// Contains reports whether callerID is allow-listed.
func (a AllowList) Contains(callerID string) bool {
	if callerID == "" || len(a.addrs) == 0 {
		return false
	}

	_, ok := a.addrs[canonicalAddr(callerID)]

	return ok
}

// Len returns the number of allow-listed addresses.
func (a AllowList) Len() int {
	return len(a.addrs)
}

// canonicalAddr normalizes IP spellings so "::ffff:1.2.3.4" matches "1.2.3.4".
// Non-IP identifiers are returned unchanged.
func canonicalAddr(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return s
	}

	return addr.Unmap().String()
}
