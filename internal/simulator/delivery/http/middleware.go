package http

import (
	"net/http"

	"nsplit-trader/pkg/common"

	"github.com/labstack/echo/v4"
)

// APIKeyMiddleware rejects requests that do not carry the shared simulator
// API key. An empty configured key disables the check.
func APIKeyMiddleware(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey != "" && c.Request().Header.Get(common.HeaderSimulatorAPIKey) != apiKey {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid API key"})
			}
			return next(c)
		}
	}
}
