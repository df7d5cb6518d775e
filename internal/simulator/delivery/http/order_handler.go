package http

import (
	"context"
	"errors"
	"net/http"

	"nsplit-trader/internal/simulator/dto"
	"nsplit-trader/internal/simulator/repository"
	"nsplit-trader/internal/simulator/service"
	"nsplit-trader/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// OrderHandler handles HTTP requests for simulated order execution.
type OrderHandler struct {
	orderService service.OrderService
	logger       *logger.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService service.OrderService, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// RegisterRoutes registers the order routes to the Echo group.
func (h *OrderHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/buy", h.PlaceBuyOrder)
	g.POST("/sell", h.PlaceSellOrder)
	g.GET("/:id", h.GetOrder)
	g.GET("/account/:user_id", h.GetAccountOrders)
}

// PlaceBuyOrder executes a buy against the user's account.
func (h *OrderHandler) PlaceBuyOrder(c echo.Context) error {
	return h.placeOrder(c, h.orderService.PlaceBuyOrder)
}

// PlaceSellOrder executes a sell against the user's account.
func (h *OrderHandler) PlaceSellOrder(c echo.Context) error {
	return h.placeOrder(c, h.orderService.PlaceSellOrder)
}

func (h *OrderHandler) placeOrder(c echo.Context, execute func(context.Context, *dto.OrderRequest) (*dto.OrderResponse, error)) error {
	var req dto.OrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.UserID == uuid.Nil || req.StockCode == "" || req.Price <= 0 || req.Quantity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id, stock_code, price and quantity are required"})
	}

	order, err := execute(c.Request().Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found"})
		case errors.Is(err, repository.ErrInsufficientFunds),
			errors.Is(err, repository.ErrInsufficientInventory):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			h.logger.Error("Failed to execute order", logger.ErrorField(err), logger.StringField("stock_code", req.StockCode))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to execute order"})
		}
	}

	return c.JSON(http.StatusCreated, order)
}

// GetOrder retrieves one order receipt by id.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order ID"})
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		h.logger.Error("Failed to get order", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get order"})
	}

	return c.JSON(http.StatusOK, order)
}

// GetAccountOrders lists all orders for a user's account, newest first.
func (h *OrderHandler) GetAccountOrders(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid user ID"})
	}

	orders, err := h.orderService.GetAccountOrders(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found"})
		}
		h.logger.Error("Failed to list account orders", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list orders"})
	}

	return c.JSON(http.StatusOK, orders)
}
