package http

import (
	"net/http"
	"strconv"

	"nsplit-trader/internal/simulator/dto"
	"nsplit-trader/internal/simulator/service"
	"nsplit-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultHistoryLimit = 100

// PriceHandler handles HTTP requests for simulated prices.
type PriceHandler struct {
	priceService service.PriceService
	logger       *logger.Logger
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(priceService service.PriceService, logger *logger.Logger) *PriceHandler {
	return &PriceHandler{priceService: priceService, logger: logger}
}

// RegisterRoutes registers the price routes to the Echo group.
func (h *PriceHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/:stock_code", h.GetPrice)
	g.POST("/:stock_code", h.SetPrice)
	g.GET("/:stock_code/history", h.GetHistory)
}

// GetPrice returns the current price for a stock, initializing it on first
// access.
func (h *PriceHandler) GetPrice(c echo.Context) error {
	stockCode := c.Param("stock_code")

	price, err := h.priceService.GetPrice(c.Request().Context(), stockCode)
	if err != nil {
		h.logger.Error("Failed to get price", logger.ErrorField(err), logger.StringField("stock_code", stockCode))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get price"})
	}

	return c.JSON(http.StatusOK, price)
}

// SetPrice manually overrides a stock's price.
func (h *PriceHandler) SetPrice(c echo.Context) error {
	stockCode := c.Param("stock_code")

	var req dto.SetPriceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Price must be positive"})
	}

	price, err := h.priceService.SetPrice(c.Request().Context(), stockCode, req.Price)
	if err != nil {
		h.logger.Error("Failed to set price", logger.ErrorField(err), logger.StringField("stock_code", stockCode))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to set price"})
	}

	return c.JSON(http.StatusOK, price)
}

// GetHistory returns recent price observations for a stock, newest first.
func (h *PriceHandler) GetHistory(c echo.Context) error {
	stockCode := c.Param("stock_code")

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	history, err := h.priceService.GetHistory(c.Request().Context(), stockCode, limit)
	if err != nil {
		h.logger.Error("Failed to get price history", logger.ErrorField(err), logger.StringField("stock_code", stockCode))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get price history"})
	}

	return c.JSON(http.StatusOK, history)
}
