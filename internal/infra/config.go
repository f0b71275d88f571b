package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv              string
	Port                string
	DatabaseURL         string
	JWTSecret           string
	TokenTTL            time.Duration
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceID       string
	BillingSuccessURL   string
	BillingCancelURL    string
	FreeDailyLimit      int
	QuotaWindow         string
	DefaultLocale       string
	AllowedOrigins      []string
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
	RateLimitPerMin     int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where allowed. Missing required secrets are fatal here; nothing
// downstream runs half-configured.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		TokenTTL:            time.Hour * time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceID:       os.Getenv("STRIPE_PRICE_ID"),
		BillingSuccessURL:   getEnv("BILLING_SUCCESS_URL", "http://localhost:3000/billing/success"),
		BillingCancelURL:    getEnv("BILLING_CANCEL_URL", "http://localhost:3000/pricing"),
		FreeDailyLimit:      getEnvInt("FREE_DAILY_LIMIT", 3),
		QuotaWindow:         getEnv("QUOTA_WINDOW", "day"),
		DefaultLocale:       getEnv("DEFAULT_LOCALE", "en"),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.StripeSecretKey != "" && cfg.StripeWebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
