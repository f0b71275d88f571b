// Package httpapi assembles the chi router.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/http/handlers"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/middleware"
)

// Options carries router-level configuration.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   string
}

// NewRouter builds the full route tree.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.Locale(opts.DefaultLocale),
	)

	r.Get("/v1/healthz", app.Health)

	r.Post("/v1/auth/signup", app.SignUp)
	r.Post("/v1/auth/signin", app.SignIn)

	r.Post("/v1/webhooks/stripe", app.StripeWebhook)

	// Generation serves guests and accounts through one endpoint.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identify(app.JWTSecret))
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Post("/v1/generate", app.Generate)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.JWTSecret))

		r.Get("/v1/me", app.Me)
		r.Get("/v1/account/watch", app.WatchAccount)

		r.Post("/v1/billing/checkout", app.BillingCheckout)
		r.Post("/v1/billing/portal", app.BillingPortal)

		r.Route("/v1/favorites", func(r chi.Router) {
			r.Post("/", app.FavoritesCreate)
			r.Get("/", app.FavoritesList)
			r.Get("/export", app.FavoritesExport)
			r.Delete("/{id}", app.FavoritesDelete)
		})
	})

	return r
}
