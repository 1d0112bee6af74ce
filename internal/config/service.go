package config

import "time"

type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	ClientURL   string `yaml:"client_url" mapstructure:"client_url"`
	// DefaultProvider is used when a caller does not name a provider.
	DefaultProvider string `yaml:"default_provider" mapstructure:"default_provider"`
	// Currency applied to payments that do not carry one.
	Currency string `yaml:"currency" mapstructure:"currency"`
	// EncryptionKey is the hex-encoded 32 byte key for sender IBANs at rest.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key"`
	// WebhookRetryInterval is how often undispatched webhook events are republished.
	WebhookRetryInterval time.Duration `yaml:"webhook_retry_interval" mapstructure:"webhook_retry_interval"`
	WebhookRetryBatch    int           `yaml:"webhook_retry_batch" mapstructure:"webhook_retry_batch"`
	Stripe               StripeConfig  `yaml:"stripe" mapstructure:"stripe"`
	Toss                 TossConfig    `yaml:"toss" mapstructure:"toss"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key" mapstructure:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret" mapstructure:"webhook_secret"`
}

type TossConfig struct {
	SecretKey     string `yaml:"secret_key" mapstructure:"secret_key"`
	ClientKey     string `yaml:"client_key" mapstructure:"client_key"`
	WebhookSecret string `yaml:"webhook_secret" mapstructure:"webhook_secret"`
	// BaseURL overrides https://api.tosspayments.com, mostly for sandboxes.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

type JWTConfig struct {
	Secret string `yaml:"secret" mapstructure:"secret"`
	// ReviewerRole is required for the EFT review endpoints.
	ReviewerRole string `yaml:"reviewer_role" mapstructure:"reviewer_role"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	// IdempotencyTTL is how long a processed webhook delivery is remembered.
	IdempotencyTTL string `yaml:"idempotency_ttl" mapstructure:"idempotency_ttl"`
	// EFTChannel receives approval and rejection events.
	EFTChannel string `yaml:"eft_channel" mapstructure:"eft_channel"`
	// WebhookChannel receives verified gateway events.
	WebhookChannel string `yaml:"webhook_channel" mapstructure:"webhook_channel"`
}

const defaultIdempotencyTTL = 24 * time.Hour

// TTL parses IdempotencyTTL, falling back to a day.
func (c RedisConfig) TTL() time.Duration {
	d, err := time.ParseDuration(c.IdempotencyTTL)
	if err != nil || d <= 0 {
		return defaultIdempotencyTTL
	}
	return d
}
