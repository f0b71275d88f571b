// Package handlers contains the HTTP surface of the service.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/entitlement"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/genai"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/middleware"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/watch"
)

// Generator abstracts the generation service for the handlers.
type Generator interface {
	Generate(ctx context.Context, req genai.Request) (*genai.Result, error)
}

// Biller abstracts the payment gateway operations.
type Biller interface {
	Configured() bool
	WebhookSecret() string
	CheckoutURL(ctx context.Context, account *domain.Account) (string, error)
	PortalURL(ctx context.Context, account *domain.Account) (string, error)
	HandleEvent(ctx context.Context, event stripe.Event) (*domain.Account, error)
}

// App is the dependency container injected into every handler. It is built
// once at process start; nothing in here is package-level state.
type App struct {
	Logger    zerolog.Logger
	Accounts  domain.AccountRepository
	Favorites domain.FavoriteRepository
	Gate      *entitlement.Gate
	Generator Generator
	Billing   Biller
	Hub       *watch.Hub
	JWTSecret string
	TokenTTL  time.Duration
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
