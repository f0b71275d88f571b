package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/entitlement"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/genai"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/middleware"
)

const guestIDHeader = "X-Guest-ID"

type generateRequest struct {
	Feature string `json:"feature"`
	Product string `json:"product"`
	Tone    string `json:"tone"`
	Locale  string `json:"locale"`
	Count   int    `json:"count"`
}

type generateResponse struct {
	Feature   string   `json:"feature"`
	Items     []string `json:"items"`
	Remaining int      `json:"remaining"`
	Unlimited bool     `json:"unlimited"`
	Actor     string   `json:"actor"`
}

// deniedResponse tells the client why generation was refused. Actor lets the
// UI prompt guests to sign up while prompting accounts to upgrade.
type deniedResponse struct {
	Error errorBody `json:"error"`
	Actor string    `json:"actor"`
}

const maxVariants = 5

// Generate is the single generation entry point for guests and accounts:
// entitlement check, provider call, consumption bookkeeping, live push.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	actor, account, ok := a.resolveActor(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	feature, ok := domain.ParseFeature(req.Feature)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown feature")
		return
	}
	product := strings.TrimSpace(req.Product)
	if product == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "product is required")
		return
	}
	if req.Count <= 0 {
		req.Count = 3
	}
	if req.Count > maxVariants {
		req.Count = maxVariants
	}
	locale := req.Locale
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}

	// Decide before any provider traffic. A store failure leaves the request
	// undecided, so it is refused rather than allowed through unmetered.
	decision, err := a.Gate.Check(r.Context(), actor, feature)
	if err != nil {
		a.Logger.Error().Err(err).Msg("entitlement check failed")
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "entitlement undecided, try again")
		return
	}
	if !decision.Allowed {
		a.json(w, http.StatusForbidden, deniedResponse{
			Error: errorBody{Code: string(decision.Reason), Message: denialMessage(decision)},
			Actor: string(decision.ActorKind),
		})
		return
	}

	result, err := a.Generator.Generate(r.Context(), genai.Request{
		Feature: feature,
		Product: product,
		Tone:    strings.TrimSpace(req.Tone),
		Locale:  locale,
		Count:   req.Count,
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("feature", string(feature)).Msg("generation failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "generation service unavailable")
		return
	}

	remaining := decision.Remaining
	if !decision.Unlimited {
		rec, err := a.Gate.Record(r.Context(), actor, feature)
		if err != nil {
			// The result exists but its consumption could not be booked;
			// refusing keeps entitlement state unambiguous.
			a.Logger.Error().Err(err).Msg("usage record failed")
			a.error(w, http.StatusServiceUnavailable, "store_unavailable", "usage could not be recorded, try again")
			return
		}
		remaining = a.Gate.Limit() - rec.Count
		if remaining < 0 {
			remaining = 0
		}
	}

	if account != nil {
		a.publishAccount(r.Context(), account)
	}

	a.json(w, http.StatusOK, generateResponse{
		Feature:   string(feature),
		Items:     result.Items,
		Remaining: remaining,
		Unlimited: decision.Unlimited,
		Actor:     string(actor.Kind),
	})
}

// resolveActor turns the request identity into an entitlement subject. An
// authenticated caller becomes an account actor carrying its live
// subscription state; anyone else is a guest keyed by the client-persisted
// guest ID, issued here on first contact.
func (a *App) resolveActor(w http.ResponseWriter, r *http.Request) (domain.Actor, *domain.Account, bool) {
	if userID := a.currentUserID(r); userID != "" {
		account, ok := a.requireAccount(w, r)
		if !ok {
			return domain.Actor{}, nil, false
		}
		return account.Actor(), account, true
	}
	guestID := strings.TrimSpace(r.Header.Get(guestIDHeader))
	if guestID == "" {
		guestID = uuid.NewString()
	}
	w.Header().Set(guestIDHeader, guestID)
	return domain.GuestActor(guestID), nil, true
}

func denialMessage(d entitlement.Decision) string {
	switch {
	case d.Reason == entitlement.ReasonUpgradeRequired:
		return "this feature requires an active subscription"
	case d.ActorKind == domain.ActorGuest:
		return "daily free limit reached, create an account to continue"
	default:
		return "daily free limit reached, upgrade for unlimited generations"
	}
}

// publishAccount pushes a fresh account document to watch subscribers.
func (a *App) publishAccount(ctx context.Context, account *domain.Account) {
	usage, err := a.Gate.Snapshot(ctx, account.Actor())
	if err != nil {
		a.Logger.Warn().Err(err).Msg("snapshot for publish failed")
		return
	}
	a.Hub.Publish(account.ID, buildAccountDocument(account, usage, a.Gate.Limit()))
}
