package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/wekeepgrowing/paygate/internal/adapter/handler/http"
	"github.com/wekeepgrowing/paygate/internal/config"
	"github.com/wekeepgrowing/paygate/internal/middleware/auth"
	"github.com/wekeepgrowing/paygate/pkg/logger"
)

// webhook bodies larger than this are refused before signature checks
const webhookBodyLimit = "1M"

// Services are the use cases the HTTP surface exposes.
type Services struct {
	Webhooks  handlers.WebhookProcessor
	Reviews   handlers.EFTReviewer
	Providers handlers.ProviderCatalog
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	services Services
}

func NewServer(cfg *config.Config, log *zap.Logger, services Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(logger.NewEchoRequestLogger(log.Named("http")))
	e.Use(middleware.Recover())
	if cfg.Service.ClientURL != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{cfg.Service.ClientURL},
			AllowMethods: []string{echo.GET, echo.POST},
		}))
	}

	s := &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		services: services,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Address()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	webhookHandler := handlers.NewWebhookHandler(s.services.Webhooks, s.logger.Named("webhook_handler"))
	eftHandler := handlers.NewEFTHandler(s.services.Reviews, s.logger.Named("eft_handler"))
	providersHandler := handlers.NewProvidersHandler(s.services.Providers, s.logger)

	// Gateways authenticate with signatures, not JWTs.
	s.echo.POST("/webhooks/:provider", webhookHandler.HandleWebhook, middleware.BodyLimit(webhookBodyLimit))

	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
	}

	v1 := s.echo.Group("/api/v1")
	v1.GET("/providers", providersHandler.GetProviders)

	// EFT review requires an authenticated reviewer
	reviews := v1.Group("/eft",
		auth.JWTMiddleware(jwtConfig),
		auth.RequireRole(s.config.JWT.ReviewerRole, s.logger),
	)
	reviews.POST("", eftHandler.Submit)
	reviews.GET("/pending", eftHandler.ListPending)
	reviews.POST("/:id/approve", eftHandler.Approve)
	reviews.POST("/:id/reject", eftHandler.Reject)
	reviews.POST("/bulk-approve", eftHandler.BulkApprove)
	reviews.POST("/bulk-reject", eftHandler.BulkReject)
}
