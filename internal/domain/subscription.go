package domain

// SubscriptionStatus is the paid-tier flag. Only SubscriptionActive lifts
// quota enforcement; the transition free -> active happens exclusively in
// reaction to a verified payment event.
type SubscriptionStatus string

const (
	SubscriptionFree   SubscriptionStatus = "free"
	SubscriptionActive SubscriptionStatus = "active"
)

// PlanPro is the single paid plan assigned on activation.
const PlanPro = "pro"

// PlanFree is the default plan for new and downgraded accounts.
const PlanFree = "free"

// Subscription describes an actor's billing state. BillingRef is the opaque
// payment-gateway customer reference and is empty until first checkout.
type Subscription struct {
	Status     SubscriptionStatus
	Plan       string
	BillingRef string
}

// Active reports whether the subscription currently lifts metering.
func (s Subscription) Active() bool {
	return s.Status == SubscriptionActive
}
