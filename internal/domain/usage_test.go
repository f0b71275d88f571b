package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveCountLazyReset(t *testing.T) {
	windowStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	before := UsageRecord{Feature: FeatureHooks, Count: 3, LastReset: windowStart.Add(-time.Minute)}
	assert.Zero(t, before.EffectiveCount(windowStart))

	within := UsageRecord{Feature: FeatureHooks, Count: 2, LastReset: windowStart.Add(time.Hour)}
	assert.Equal(t, 2, within.EffectiveCount(windowStart))

	var empty UsageRecord
	assert.Zero(t, empty.EffectiveCount(windowStart))
}

func TestWindowStartCalendarDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), WindowCalendarDay.WindowStart(now))

	// Non-UTC callers are anchored to the UTC day.
	jakarta := time.FixedZone("WIB", 7*60*60)
	local := time.Date(2026, 3, 11, 5, 0, 0, 0, jakarta)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), WindowCalendarDay.WindowStart(local))
}

func TestWindowStartRolling(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(-24*time.Hour), WindowRolling24h.WindowStart(now))
}

func TestParseWindowPolicy(t *testing.T) {
	assert.Equal(t, WindowRolling24h, ParseWindowPolicy("rolling"))
	assert.Equal(t, WindowCalendarDay, ParseWindowPolicy("day"))
	assert.Equal(t, WindowCalendarDay, ParseWindowPolicy(""))
	assert.Equal(t, WindowCalendarDay, ParseWindowPolicy("weekly"))
}

func TestParseFeature(t *testing.T) {
	f, ok := ParseFeature(" Hooks ")
	assert.True(t, ok)
	assert.Equal(t, FeatureHooks, f)

	_, ok = ParseFeature("poetry")
	assert.False(t, ok)
}

func TestPremiumFeatures(t *testing.T) {
	assert.False(t, FeatureHooks.Premium())
	assert.False(t, FeatureCaptions.Premium())
	assert.False(t, FeatureHashtags.Premium())
	assert.True(t, FeatureVideoScript.Premium())
	assert.True(t, FeatureAdCopy.Premium())
}

func TestActorUnlimited(t *testing.T) {
	guest := GuestActor("g1")
	assert.False(t, guest.Unlimited())
	assert.Equal(t, ActorGuest, guest.Kind)

	free := Account{ID: "a1", Subscription: Subscription{Status: SubscriptionFree}}
	assert.False(t, free.Actor().Unlimited())

	pro := Account{ID: "a2", Subscription: Subscription{Status: SubscriptionActive}}
	assert.True(t, pro.Actor().Unlimited())
	assert.Equal(t, ActorAccount, pro.Actor().Kind)
}
