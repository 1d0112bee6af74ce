package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/app"
	"github.com/wekeepgrowing/paygate/internal/config"
	httpServer "github.com/wekeepgrowing/paygate/internal/infrastructure/http"
	"github.com/wekeepgrowing/paygate/internal/usecase"
	"github.com/wekeepgrowing/paygate/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("service", cfg.Service.Name), zap.String("env", cfg.Service.Environment))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg, zapLogger, app.WithMigrations())
	if err != nil {
		zapLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	go retryWebhooks(ctx, application.Webhooks, cfg.Service.WebhookRetryInterval, cfg.Service.WebhookRetryBatch, zapLogger)

	httpSrv := httpServer.NewServer(cfg, zapLogger, httpServer.Services{
		Webhooks:  application.Webhooks,
		Reviews:   application.Reviews,
		Providers: application.Providers,
	})

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("HTTP server stopped", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}

// retryWebhooks republishes stored webhook events whose first dispatch
// failed, until ctx is cancelled.
func retryWebhooks(ctx context.Context, webhooks *usecase.WebhookService, interval time.Duration, batch int, logger *zap.Logger) {
	if interval <= 0 {
		logger.Info("Webhook retry loop disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := webhooks.RetryPending(ctx, batch); err != nil && ctx.Err() == nil {
				logger.Error("Webhook retry pass failed", zap.Error(err))
			}
		}
	}
}
