package http

import (
	"errors"
	"net/http"

	"nsplit-trader/internal/simulator/dto"
	"nsplit-trader/internal/simulator/repository"
	"nsplit-trader/internal/simulator/service"
	"nsplit-trader/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AccountHandler handles HTTP requests for simulated accounts.
type AccountHandler struct {
	accountService service.AccountService
	logger         *logger.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService service.AccountService, logger *logger.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, logger: logger}
}

// RegisterRoutes registers the account routes to the Echo group.
func (h *AccountHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/create", h.CreateAccount)
	g.GET("/:user_id", h.GetAccount)
	g.POST("/:user_id/reset", h.ResetAccount)
}

// CreateAccount provisions an account for a user identity; idempotent.
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	var req dto.CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if req.UserID == uuid.Nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}

	account, err := h.accountService.CreateAccount(c.Request().Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create account", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create account"})
	}

	return c.JSON(http.StatusCreated, account)
}

// GetAccount retrieves the account and holdings for a user.
func (h *AccountHandler) GetAccount(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid user ID"})
	}

	account, err := h.accountService.GetAccount(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found"})
		}
		h.logger.Error("Failed to get account", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get account"})
	}

	return c.JSON(http.StatusOK, account)
}

// ResetAccount restores the initial balance and drops all holdings.
func (h *AccountHandler) ResetAccount(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid user ID"})
	}

	account, err := h.accountService.ResetAccount(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Account not found"})
		}
		h.logger.Error("Failed to reset account", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to reset account"})
	}

	return c.JSON(http.StatusOK, account)
}
