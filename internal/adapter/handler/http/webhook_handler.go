package http

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/usecase"
)

type WebhookProcessor interface {
	HandleDelivery(ctx context.Context, providerName string, payload []byte, headers http.Header) (*usecase.WebhookOutcome, error)
}

type WebhookHandler struct {
	webhooks WebhookProcessor
	logger   *zap.Logger
}

func NewWebhookHandler(webhooks WebhookProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhooks: webhooks,
		logger:   logger,
	}
}

// HandleWebhook answers gateways with 200 for accepted or repeated
// deliveries, 500 when the delivery should be retried and 400 when it
// never will succeed.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	name := c.Param("provider")

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	outcome, err := h.webhooks.HandleDelivery(c.Request().Context(), name, body, c.Request().Header)
	if err != nil {
		return respondError(c, h.logger, err, "Webhook processing failed", zap.String("provider", name))
	}

	result := outcome.Result
	switch {
	case result.Success:
		return c.JSON(http.StatusOK, echo.Map{
			"received":  true,
			"event_id":  result.EventID,
			"duplicate": outcome.Duplicate,
		})
	case result.ShouldRetry:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": result.ErrorMessage})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": result.ErrorMessage})
	}
}
