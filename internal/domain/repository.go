package domain

import (
	"context"
	"time"
)

// QuotaStore persists usage counters. Guests and accounts are served by
// separate implementations of the same contract so the entitlement logic is
// written once. Increment must be atomic with respect to concurrent calls for
// the same (actor, feature): two overlapping increments may never collapse
// into one.
type QuotaStore interface {
	// Usage returns the stored record, zero-valued when none exists yet.
	Usage(ctx context.Context, actorID string, feature Feature) (UsageRecord, error)
	// Increment applies lazy reset against windowStart, adds one, stamps
	// LastReset, and returns the committed record.
	Increment(ctx context.Context, actorID string, feature Feature, windowStart time.Time) (UsageRecord, error)
	// Snapshot returns every stored record for the actor.
	Snapshot(ctx context.Context, actorID string) ([]UsageRecord, error)
}

// AccountRepository defines access to account records.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	// Activate flips the subscription to active and records the billing
	// reference. Re-applying to an already-active account is a no-op that
	// still succeeds. Unknown IDs return ErrNotFound.
	Activate(ctx context.Context, id, plan, billingRef string) (*Account, error)
	// Deactivate reverts the account identified by billing reference to the
	// free tier.
	Deactivate(ctx context.Context, billingRef string) (*Account, error)
}

// FavoriteRepository handles persistence for saved generation results.
type FavoriteRepository interface {
	Create(ctx context.Context, fav *Favorite) (*Favorite, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]Favorite, error)
	Delete(ctx context.Context, accountID, favoriteID string) error
}
