package domain

import "time"

// UsageRecord is the per-actor, per-feature consumption counter. LastReset
// marks the most recent consumption; a record whose LastReset falls outside
// the current window counts as zero (lazy reset, no background timer).
type UsageRecord struct {
	Feature   Feature
	Count     int
	LastReset time.Time
}

// EffectiveCount applies lazy-reset semantics against the given window start.
func (u UsageRecord) EffectiveCount(windowStart time.Time) int {
	if u.LastReset.Before(windowStart) {
		return 0
	}
	return u.Count
}

// WindowPolicy selects how the quota window is anchored. The choice is
// deployment configuration, applied uniformly to guests and accounts.
type WindowPolicy string

const (
	// WindowCalendarDay resets at midnight UTC.
	WindowCalendarDay WindowPolicy = "day"
	// WindowRolling24h resets once the last consumption is over 24h old.
	WindowRolling24h WindowPolicy = "rolling"
)

// ParseWindowPolicy resolves a configuration value, defaulting to calendar day.
func ParseWindowPolicy(s string) WindowPolicy {
	if WindowPolicy(s) == WindowRolling24h {
		return WindowRolling24h
	}
	return WindowCalendarDay
}

// WindowStart computes the start of the current quota window.
func (p WindowPolicy) WindowStart(now time.Time) time.Time {
	if p == WindowRolling24h {
		return now.Add(-24 * time.Hour)
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
