package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSubscriptionOnly   = errors.New("active subscription required")
	ErrProviderFailure    = errors.New("provider failure")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrUnknownAccount     = errors.New("unknown account")
	ErrBillingDisabled    = errors.New("billing not configured")
)
