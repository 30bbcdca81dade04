package analytics

import "time"

// FactTimestamp picks the time a fact is filed under.
// Order of preference is the domain timestamp, then the envelope time, then fallback.
func FactTimestamp(domainAt *time.Time, occurredAt, fallback time.Time) time.Time {
	if domainAt != nil && !domainAt.IsZero() {
		return domainAt.UTC()
	}
	if !occurredAt.IsZero() {
		return occurredAt.UTC()
	}
	return fallback.UTC()
}
