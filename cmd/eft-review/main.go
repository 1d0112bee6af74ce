package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/app"
	"github.com/wekeepgrowing/paygate/internal/config"
	"github.com/wekeepgrowing/paygate/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Operators read results on stdout; logs go to stderr.
	cfg.Log.Output = "stderr"
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize application", zap.Error(err))
	}

	code := run(ctx, os.Args[1:], application.Reviews, os.Stdout, os.Stderr)

	application.Close()
	_ = zapLogger.Sync()
	os.Exit(code)
}
