// Package billing integrates the Stripe payment gateway: outbound checkout
// and portal sessions, and the inbound subscription lifecycle events.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

// Options carries the Stripe deployment configuration.
type Options struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

// Service exposes the payment-gateway operations the handlers need. When the
// secret key is absent the service stays constructible and every operation
// reports domain.ErrBillingDisabled, so the rest of the API keeps working.
type Service struct {
	accounts domain.AccountRepository
	opts     Options
	logger   zerolog.Logger
}

// New builds a Service.
func New(accounts domain.AccountRepository, opts Options, logger zerolog.Logger) *Service {
	return &Service{accounts: accounts, opts: opts, logger: logger}
}

// Configured reports whether Stripe credentials are present.
func (s *Service) Configured() bool {
	return s.opts.SecretKey != "" && s.opts.WebhookSecret != ""
}

// WebhookSecret returns the shared signing secret for event verification.
func (s *Service) WebhookSecret() string {
	return s.opts.WebhookSecret
}

// CheckoutURL creates a hosted checkout session for the account and returns
// the redirect URL. The account ID travels as the client reference so the
// completion event can be resolved back to an actor.
func (s *Service) CheckoutURL(_ context.Context, account *domain.Account) (string, error) {
	if !s.Configured() {
		return "", domain.ErrBillingDisabled
	}
	stripe.Key = s.opts.SecretKey
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(s.opts.SuccessURL),
		CancelURL:         stripe.String(s.opts.CancelURL),
		ClientReferenceID: stripe.String(account.ID),
		CustomerEmail:     stripe.String(account.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.opts.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	sess, err := session.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			s.logger.Error().Str("code", string(stripeErr.Code)).Msg("stripe checkout failed")
		}
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// PortalURL creates a billing portal session for an account that already has
// a gateway customer record.
func (s *Service) PortalURL(_ context.Context, account *domain.Account) (string, error) {
	if !s.Configured() {
		return "", domain.ErrBillingDisabled
	}
	if account.Subscription.BillingRef == "" {
		return "", domain.ErrSubscriptionOnly
	}
	stripe.Key = s.opts.SecretKey
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(account.Subscription.BillingRef),
		ReturnURL: stripe.String(s.opts.SuccessURL),
	}
	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

// HandleEvent applies a signature-verified gateway event to account state.
// It returns the affected account when subscription state changed, nil when
// the event is irrelevant. Activation is idempotent: replaying a completed
// checkout leaves the already-active account untouched and still succeeds.
// An event that names no resolvable account is an error so the gateway
// retries instead of silently dropping it.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) (*domain.Account, error) {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		if sess.ClientReferenceID == "" {
			return nil, fmt.Errorf("%w: event %s has no client reference", domain.ErrUnknownAccount, event.ID)
		}
		billingRef := ""
		if sess.Customer != nil {
			billingRef = sess.Customer.ID
		}
		account, err := s.accounts.Activate(ctx, sess.ClientReferenceID, domain.PlanPro, billingRef)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAccount, sess.ClientReferenceID)
			}
			return nil, fmt.Errorf("activate subscription: %w", err)
		}
		s.logger.Info().Str("account_id", account.ID).Msg("subscription activated")
		return account, nil

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		if sub.Customer == nil || sub.Customer.ID == "" {
			return nil, nil
		}
		account, err := s.accounts.Deactivate(ctx, sub.Customer.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Customer never completed checkout here; nothing to revert.
				return nil, nil
			}
			return nil, fmt.Errorf("deactivate subscription: %w", err)
		}
		s.logger.Info().Str("account_id", account.ID).Msg("subscription deactivated")
		return account, nil
	}
	return nil, nil
}
