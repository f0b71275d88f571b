// Package entitlement holds the single decision point for whether an actor
// may perform a generation now, and the post-success bookkeeping.
package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

// Reason explains a denial. Denials are ordinary outcomes, not errors.
type Reason string

const (
	ReasonUpgradeRequired Reason = "upgrade_required"
	ReasonQuotaExceeded   Reason = "quota_exceeded"
)

// Decision is the outcome of a Check. ActorKind is carried so callers can
// prompt guests to create an account instead of offering an upgrade.
type Decision struct {
	Allowed   bool
	Reason    Reason
	ActorKind domain.ActorKind
	Remaining int
	Unlimited bool
}

// Config tunes the gate. DailyLimit applies to free features for
// non-subscribed actors; Window selects the reset anchoring.
type Config struct {
	DailyLimit int
	Window     domain.WindowPolicy
}

// Gate evaluates entitlement against two quota stores: one for guest
// sessions, one for accounts. Guest and account counters never mix.
type Gate struct {
	guests   domain.QuotaStore
	accounts domain.QuotaStore
	limit    int
	window   domain.WindowPolicy
	now      func() time.Time
}

// New constructs a Gate. A non-positive DailyLimit falls back to 3.
func New(guests, accounts domain.QuotaStore, cfg Config) *Gate {
	limit := cfg.DailyLimit
	if limit <= 0 {
		limit = 3
	}
	window := cfg.Window
	if window == "" {
		window = domain.WindowCalendarDay
	}
	return &Gate{
		guests:   guests,
		accounts: accounts,
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// WithClock overrides the gate's time source. Tests only.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Limit returns the configured daily limit.
func (g *Gate) Limit() int {
	return g.limit
}

func (g *Gate) store(actor domain.Actor) domain.QuotaStore {
	if actor.Kind == domain.ActorGuest {
		return g.guests
	}
	return g.accounts
}

// Check decides whether the actor may use the feature now. It only reads.
// A store error means the request is undecided and the caller must refuse to
// proceed; the gate never fails open.
func (g *Gate) Check(ctx context.Context, actor domain.Actor, feature domain.Feature) (Decision, error) {
	if actor.Unlimited() {
		return Decision{Allowed: true, ActorKind: actor.Kind, Unlimited: true}, nil
	}
	if feature.Premium() {
		return Decision{Allowed: false, Reason: ReasonUpgradeRequired, ActorKind: actor.Kind}, nil
	}

	rec, err := g.store(actor).Usage(ctx, actor.ID, feature)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: usage read: %v", domain.ErrStoreUnavailable, err)
	}

	effective := rec.EffectiveCount(g.window.WindowStart(g.now()))
	if effective >= g.limit {
		return Decision{Allowed: false, Reason: ReasonQuotaExceeded, ActorKind: actor.Kind}, nil
	}
	return Decision{Allowed: true, ActorKind: actor.Kind, Remaining: g.limit - effective}, nil
}

// Record books one consumption after a successful generation. Unlimited
// actors are never metered. The increment is a single atomic store update so
// overlapping generations by the same actor cannot lose a count.
func (g *Gate) Record(ctx context.Context, actor domain.Actor, feature domain.Feature) (domain.UsageRecord, error) {
	if actor.Unlimited() {
		return domain.UsageRecord{Feature: feature}, nil
	}
	rec, err := g.store(actor).Increment(ctx, actor.ID, feature, g.window.WindowStart(g.now()))
	if err != nil {
		return domain.UsageRecord{}, fmt.Errorf("%w: usage increment: %v", domain.ErrStoreUnavailable, err)
	}
	return rec, nil
}

// Snapshot returns the actor's stored records with lazy reset applied, one
// per feature, for presenting remaining quota.
func (g *Gate) Snapshot(ctx context.Context, actor domain.Actor) ([]domain.UsageRecord, error) {
	stored, err := g.store(actor).Snapshot(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: usage snapshot: %v", domain.ErrStoreUnavailable, err)
	}
	windowStart := g.window.WindowStart(g.now())
	byFeature := make(map[domain.Feature]domain.UsageRecord, len(stored))
	for _, rec := range stored {
		rec.Count = rec.EffectiveCount(windowStart)
		byFeature[rec.Feature] = rec
	}
	out := make([]domain.UsageRecord, 0, len(domain.Features()))
	for _, f := range domain.Features() {
		rec, ok := byFeature[f]
		if !ok {
			rec = domain.UsageRecord{Feature: f}
		}
		out = append(out, rec)
	}
	return out, nil
}
