package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/adapter/repo"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/billing"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/database"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/entitlement"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/genai"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/http/handlers"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/http/httpapi"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/infra"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/quota"
	"github.com/isabelleeeesv/tiktok-genius-app/internal/watch"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	accounts := repo.NewAccountRepository(dbpool)
	favorites := repo.NewFavoriteRepository(dbpool)

	gate := entitlement.New(quota.NewLocal(), quota.NewPostgres(dbpool), entitlement.Config{
		DailyLimit: cfg.FreeDailyLimit,
		Window:     domain.ParseWindowPolicy(cfg.QuotaWindow),
	})

	generator, err := genai.New(genai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build generation client")
	}

	biller := billing.New(accounts, billing.Options{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		PriceID:       cfg.StripePriceID,
		SuccessURL:    cfg.BillingSuccessURL,
		CancelURL:     cfg.BillingCancelURL,
	}, logger)

	app := &handlers.App{
		Logger:    logger,
		Accounts:  accounts,
		Favorites: favorites,
		Gate:      gate,
		Generator: generator,
		Billing:   biller,
		Hub:       watch.NewHub(logger),
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
