// Package app assembles the payment service from configuration. The HTTP
// server and the review CLI share it so both act on EFT payments the same way.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/paygate/internal/adapter/repository"
	"github.com/wekeepgrowing/paygate/internal/config"
	"github.com/wekeepgrowing/paygate/internal/eft"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/cache"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/crypto"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/database"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/notify"
	providerFactory "github.com/wekeepgrowing/paygate/internal/infrastructure/provider"
	"github.com/wekeepgrowing/paygate/internal/registry"
	"github.com/wekeepgrowing/paygate/internal/usecase"
	"github.com/wekeepgrowing/paygate/pkg/messaging"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *gorm.DB
	Redis     messaging.RedisClient
	Repos     *repository.Repositories
	Providers *registry.Registry
	Webhooks  *usecase.WebhookService
	Reviews   *usecase.EFTReviewService
}

type options struct {
	migrate bool
}

type Option func(*options)

// WithMigrations runs schema migrations after connecting.
func WithMigrations() Option {
	return func(o *options) { o.migrate = true }
}

// New connects to postgres and redis and builds the services. Redis is
// skipped when no address is configured; webhooks are then neither
// deduplicated nor published.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if o.migrate {
		if err := database.Migrate(db, logger); err != nil {
			_ = database.Close(db, logger)
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	var redisClient messaging.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = messaging.NewRedisClient(ctx, messaging.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			_ = database.Close(db, logger)
			return nil, err
		}
	} else {
		logger.Warn("Redis not configured, webhook dedupe and event publishing disabled")
	}

	a, err := assemble(cfg, logger, db, redisClient)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		_ = database.Close(db, logger)
		return nil, err
	}
	return a, nil
}

func assemble(cfg *config.Config, logger *zap.Logger, db *gorm.DB, redisClient messaging.RedisClient) (*App, error) {
	var cipher crypto.EncryptionService
	if cfg.Service.EncryptionKey != "" {
		aes, err := crypto.NewAESEncryptionService(cfg.Service.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		cipher = aes
	} else {
		logger.Warn("Encryption key not configured, EFT submissions with an IBAN will be refused")
	}

	repos := repository.NewRepositories(db, logger)
	providers := providerFactory.NewFactory(&cfg.Service, logger).NewRegistry()

	var (
		store     cache.IdempotencyStore
		publisher messaging.Publisher
		notifier  eft.Notifier = eft.NopNotifier{}
	)
	if redisClient != nil {
		store = cache.NewRedisStore(redisClient.Raw(), cfg.Redis.TTL())
		publisher = redisClient
		notifier = notify.NewEFTPublisher(redisClient, cfg.Redis.EFTChannel, logger)
	}

	approvals := eft.NewApprovalService(logger,
		eft.WithTransactor(database.NewTransactor(db)),
		eft.WithNotifier(notifier),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Redis:     redisClient,
		Repos:     repos,
		Providers: providers,
		Webhooks:  usecase.NewWebhookService(providers, store, repos.Webhook, publisher, cfg.Redis.WebhookChannel, logger),
		Reviews:   usecase.NewEFTReviewService(repos.EFTPayment, approvals, cipher, logger),
	}, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if err := database.Close(a.DB, a.Logger); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}
}
