// Package quota provides the guest-side and account-side implementations of
// the usage counter store consumed by the entitlement gate.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

// Local is the in-process quota store backing guest sessions. Records are
// keyed by the opaque guest ID the client persists across reloads. The whole
// store is guarded by one mutex, which makes Increment trivially atomic.
type Local struct {
	mu      sync.Mutex
	records map[string]map[domain.Feature]domain.UsageRecord
	now     func() time.Time
}

// NewLocal creates an empty guest store.
func NewLocal() *Local {
	return &Local{
		records: make(map[string]map[domain.Feature]domain.UsageRecord),
		now:     time.Now,
	}
}

// WithClock overrides the store's time source. Tests only.
func (l *Local) WithClock(now func() time.Time) *Local {
	l.now = now
	return l
}

func (l *Local) Usage(_ context.Context, actorID string, feature domain.Feature) (domain.UsageRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[actorID][feature]
	if !ok {
		return domain.UsageRecord{Feature: feature}, nil
	}
	return rec, nil
}

func (l *Local) Increment(_ context.Context, actorID string, feature domain.Feature, windowStart time.Time) (domain.UsageRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	byFeature, ok := l.records[actorID]
	if !ok {
		byFeature = make(map[domain.Feature]domain.UsageRecord)
		l.records[actorID] = byFeature
	}
	rec := byFeature[feature]
	rec.Feature = feature
	if rec.LastReset.Before(windowStart) {
		rec.Count = 0
	}
	rec.Count++
	rec.LastReset = l.now()
	byFeature[feature] = rec
	return rec, nil
}

func (l *Local) Snapshot(_ context.Context, actorID string) ([]domain.UsageRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	byFeature := l.records[actorID]
	out := make([]domain.UsageRecord, 0, len(byFeature))
	for _, rec := range byFeature {
		out = append(out, rec)
	}
	return out, nil
}

var _ domain.QuotaStore = (*Local)(nil)
