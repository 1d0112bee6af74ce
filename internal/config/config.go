package config

import (
	"fmt"

	pkgconfig "github.com/wekeepgrowing/paygate/pkg/config"
	"github.com/wekeepgrowing/paygate/pkg/logger"
)

const serviceName = "payment"

type Config struct {
	Service  ServiceConfig  `yaml:"service" mapstructure:"service"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      logger.Config  `yaml:"log" mapstructure:"log"`
	JWT      JWTConfig      `yaml:"jwt" mapstructure:"jwt"`
	Redis    RedisConfig    `yaml:"redis" mapstructure:"redis"`
}

// defaults are applied before the config file and env overrides.
var defaults = map[string]interface{}{
	"service.name":                   serviceName,
	"service.environment":            "development",
	"service.default_provider":       "stripe",
	"service.currency":               "TRY",
	"service.webhook_retry_interval": "1m",
	"service.webhook_retry_batch":    100,
	"server.http.port":               8080,
	"database.port":                  5432,
	"database.sslmode":               "disable",
	"log.level":                      "info",
	"log.format":                     "json",
	"redis.addr":                     "localhost:6379",
	"redis.idempotency_ttl":          "24h",
	"redis.eft_channel":              "payments.eft",
	"redis.webhook_channel":          "payments.webhooks",
	"jwt.reviewer_role":              "admin",
}

// secrets may be absent from the file entirely and only set through env,
// e.g. PAYMENT_SERVICE_STRIPE_SECRET_KEY.
var envOnlyKeys = []string{
	"service.stripe.secret_key",
	"service.stripe.webhook_secret",
	"service.toss.secret_key",
	"service.toss.client_key",
	"service.toss.webhook_secret",
	"service.encryption_key",
	"database.password",
	"jwt.secret",
	"redis.password",
}

// LoadConfig reads configs/{APP_ENV}/payment.yaml (or CONFIG_PATH) with
// PAYMENT_* environment overrides.
func LoadConfig() (*Config, error) {
	loader, err := pkgconfig.Load(serviceName,
		pkgconfig.WithDefaults(defaults),
		pkgconfig.WithEnvKeys(envOnlyKeys...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := loader.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
