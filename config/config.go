package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every externally tunable setting. It is built once in
// main and handed to constructors; no package keeps its own key globals.
type Config struct {
	Port                 string
	StripeSecretKey      string
	StripePublishableKey string
	RelayURL             string
	Currency             string
	PaidPlanAmountCents  int64
	BackgroundImagePath  string
	SessionTTL           time.Duration
	AllowedOrigins       []string
}

// Load reads .env when present and falls back to defaults suited to
// local use.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Port:                 getenv("PORT", "8080"),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLIC_KEY"),
		RelayURL:             getenv("CHECKOUT_RELAY_URL", "http://localhost:8080/checkout"),
		Currency:             getenv("CURRENCY", "usd"),
		PaidPlanAmountCents:  1000,
		BackgroundImagePath:  getenv("INVOICE_BACKGROUND", "assets/invoice.png"),
		SessionTTL:           30 * time.Minute,
		AllowedOrigins:       []string{getenv("FRONTEND_ORIGIN", "http://localhost:3000")},
	}

	if v := os.Getenv("PAID_PLAN_AMOUNT_CENTS"); v != "" {
		if cents, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.PaidPlanAmountCents = cents
		}
	}
	if v := os.Getenv("SESSION_TTL_MINUTES"); v != "" {
		if mins, err := strconv.Atoi(v); err == nil {
			cfg.SessionTTL = time.Duration(mins) * time.Minute
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
