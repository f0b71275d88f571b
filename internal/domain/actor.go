package domain

// ActorKind distinguishes unauthenticated guests from accounts. Callers
// branch on it when a denial should prompt sign-up rather than upgrade.
type ActorKind string

const (
	ActorGuest   ActorKind = "guest"
	ActorAccount ActorKind = "account"
)

// Actor is the subject of entitlement checks: a guest session or an
// authenticated account together with its subscription state. Guest and
// account usage are tracked separately and never merged.
type Actor struct {
	Kind         ActorKind
	ID           string
	Subscription Subscription
}

// GuestActor builds an actor for an anonymous session. Guests are always on
// the free tier.
func GuestActor(id string) Actor {
	return Actor{
		Kind: ActorGuest,
		ID:   id,
		Subscription: Subscription{
			Status: SubscriptionFree,
			Plan:   PlanFree,
		},
	}
}

// Unlimited reports whether the actor is exempt from metering.
func (a Actor) Unlimited() bool {
	return a.Subscription.Active()
}
