package http

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	pkgErrors "github.com/wekeepgrowing/paygate/pkg/errors"
)

// respondError logs err and writes it with the status its code maps to.
// Errors without a code are reported as a bare 500.
func respondError(c echo.Context, logger *zap.Logger, err error, msg string, fields ...zap.Field) error {
	pkgErrors.LogError(logger, err, msg, fields...)

	httpErr := pkgErrors.ToHTTPError(err)
	return c.JSON(httpErr.Code, echo.Map{
		"error": httpErr.Message,
		"code":  pkgErrors.CodeOf(err),
	})
}

func invalidArgument(c echo.Context, logger *zap.Logger, err error) error {
	return respondError(c, logger, pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "invalid request", err), "Invalid request")
}
