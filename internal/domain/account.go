package domain

import "time"

// Account is an identity-bound user record held in the account store.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	Locale       string
	Subscription Subscription
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor projects the account into the entitlement subject.
func (a *Account) Actor() Actor {
	return Actor{
		Kind:         ActorAccount,
		ID:           a.ID,
		Subscription: a.Subscription,
	}
}

// Favorite is a saved generation result owned by an account. Favorites are
// usable only while the owning subscription is active.
type Favorite struct {
	ID        string
	AccountID string
	Feature   Feature
	Product   string
	Content   string
	CreatedAt time.Time
}
