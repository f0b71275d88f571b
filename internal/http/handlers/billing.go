package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

type redirectResponse struct {
	URL string `json:"url"`
}

// BillingCheckout starts a hosted checkout and returns the redirect URL.
func (a *App) BillingCheckout(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireAccount(w, r)
	if !ok {
		return
	}
	if account.Subscription.Active() {
		a.error(w, http.StatusConflict, "already_subscribed", "subscription is already active")
		return
	}
	url, err := a.Billing.CheckoutURL(r.Context(), account)
	if err != nil {
		a.billingError(w, err, "checkout session failed")
		return
	}
	a.json(w, http.StatusOK, redirectResponse{URL: url})
}

// BillingPortal returns a billing portal redirect for managing the plan.
func (a *App) BillingPortal(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireAccount(w, r)
	if !ok {
		return
	}
	url, err := a.Billing.PortalURL(r.Context(), account)
	if err != nil {
		a.billingError(w, err, "portal session failed")
		return
	}
	a.json(w, http.StatusOK, redirectResponse{URL: url})
}

// StripeWebhook receives payment gateway events. The signature is verified
// before anything is trusted; a verification failure rejects the whole
// delivery and applies nothing. Unresolvable account references are answered
// non-2xx so the gateway retries.
func (a *App) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if !a.Billing.Configured() {
		a.error(w, http.StatusServiceUnavailable, "billing_disabled", domain.ErrBillingDisabled.Error())
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable payload")
		return
	}
	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), a.Billing.WebhookSecret())
	if err != nil {
		a.Logger.Warn().Err(err).Msg("webhook signature rejected")
		a.error(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
		return
	}

	account, err := a.Billing.HandleEvent(r.Context(), event)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownAccount) {
			a.error(w, http.StatusBadRequest, "unknown_account", err.Error())
			return
		}
		a.Logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("webhook apply failed")
		a.error(w, http.StatusInternalServerError, "internal", "event not applied")
		return
	}
	if account != nil {
		a.publishAccount(r.Context(), account)
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) billingError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrBillingDisabled):
		a.error(w, http.StatusServiceUnavailable, "billing_disabled", domain.ErrBillingDisabled.Error())
	case errors.Is(err, domain.ErrSubscriptionOnly):
		a.error(w, http.StatusConflict, "no_billing_record", "no billing record for this account yet")
	default:
		a.Logger.Error().Err(err).Msg(fallback)
		a.error(w, http.StatusBadGateway, "gateway_failure", fallback)
	}
}
