package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/linkmarket/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
)

// StripeConfig holds what the Stripe gateway needs at runtime
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	IsTestMode    bool
	Currency      string
	// SessionExpiry bounds how long a hosted payment page stays payable (Stripe allows 30m..24h)
	SessionExpiry time.Duration
}

// NewStripeConfig copies the relevant settings from the application config
func NewStripeConfig(cfg config.StripeConfig) *StripeConfig {
	return &StripeConfig{
		SecretKey:     cfg.SecretKey,
		WebhookSecret: cfg.WebhookSecret,
		IsTestMode:    cfg.IsTestMode,
		Currency:      cfg.Currency,
		SessionExpiry: cfg.SessionExpiry,
	}
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if c.IsTestMode && strings.HasPrefix(c.SecretKey, "sk_live") {
		return fmt.Errorf("stripe: test mode enabled but secret key is not a test key")
	}
	if !c.IsTestMode && strings.HasPrefix(c.SecretKey, "sk_test") {
		return fmt.Errorf("stripe: live mode enabled but secret key is not a live key")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("stripe: webhook secret is required")
	}
	if c.Currency == "" {
		return fmt.Errorf("stripe: currency is required")
	}
	if c.SessionExpiry != 0 && (c.SessionExpiry < 30*time.Minute || c.SessionExpiry > 24*time.Hour) {
		return fmt.Errorf("stripe: session expiry must be between 30m and 24h")
	}
	return nil
}

// InitStripeClient sets the global API key used by the stripe-go resource packages
func (c *StripeConfig) InitStripeClient() {
	stripe.Key = c.SecretKey
}
