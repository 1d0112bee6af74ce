package provider

import (
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/config"
	"github.com/wekeepgrowing/paygate/internal/domain/provider"
	stripeProvider "github.com/wekeepgrowing/paygate/internal/infrastructure/provider/stripe"
	tossProvider "github.com/wekeepgrowing/paygate/internal/infrastructure/provider/toss"
	"github.com/wekeepgrowing/paygate/internal/registry"
)

// Factory builds the bundled gateway adapters from service configuration.
// Adapters are cheap and rebuilt per lookup; the Toss circuit breaker is
// owned here so its failure counts survive across lookups.
type Factory struct {
	config      *config.ServiceConfig
	logger      *zap.Logger
	tossBreaker *gobreaker.CircuitBreaker
}

func NewFactory(cfg *config.ServiceConfig, logger *zap.Logger) *Factory {
	return &Factory{
		config:      cfg,
		logger:      logger,
		tossBreaker: tossProvider.NewBreaker(logger.With(zap.String("provider", string(provider.ProviderTypeToss)))),
	}
}

// NewRegistry returns a registry holding every bundled adapter, with the
// configured default provider.
func (f *Factory) NewRegistry() *registry.Registry {
	r := registry.New(f.logger, registry.WithDefaultProvider(f.config.DefaultProvider))
	f.Register(r)
	return r
}

// Register adds the bundled adapters to r. Adapters are built lazily on each
// registry lookup.
func (f *Factory) Register(r *registry.Registry) {
	r.Register(string(provider.ProviderTypeStripe), f.createStripeProvider)
	r.Register(string(provider.ProviderTypeToss), f.createTossProvider)
}

func (f *Factory) createStripeProvider() provider.PaymentProvider {
	return stripeProvider.NewStripeProvider(f.config.Stripe, f.logger)
}

func (f *Factory) createTossProvider() provider.PaymentProvider {
	return tossProvider.NewTossProvider(f.config.Toss, f.logger, tossProvider.WithBreaker(f.tossBreaker))
}
