package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/domain/provider"
)

type ProviderCatalog interface {
	ListProviders() []string
	Get(name string) (provider.PaymentProvider, error)
	DefaultName() string
}

type ProvidersHandler struct {
	catalog ProviderCatalog
	logger  *zap.Logger
}

func NewProvidersHandler(catalog ProviderCatalog, logger *zap.Logger) *ProvidersHandler {
	return &ProvidersHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// GetProviders lists registered adapters with their capability flags.
// Adapters that fail to build are left out.
func (h *ProvidersHandler) GetProviders(c echo.Context) error {
	names := h.catalog.ListProviders()
	caps := make([]provider.Capabilities, 0, len(names))
	for _, name := range names {
		p, err := h.catalog.Get(name)
		if err != nil {
			h.logger.Warn("Skipping provider", zap.String("provider", name), zap.Error(err))
			continue
		}
		caps = append(caps, provider.CapabilitiesOf(p))
	}

	return c.JSON(http.StatusOK, ProvidersResponse{
		Default:   h.catalog.DefaultName(),
		Providers: caps,
	})
}
