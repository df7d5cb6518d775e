package http

import (
	"errors"
	"net/http"

	"nsplit-trader/internal/trading/dto"
	"nsplit-trader/internal/trading/repository"
	"nsplit-trader/internal/trading/service"
	"nsplit-trader/pkg/common"
	"nsplit-trader/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SessionHandler handles HTTP requests for trading sessions.
type SessionHandler struct {
	sessionService service.SessionService
	logger         *logger.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService, logger *logger.Logger) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, logger: logger}
}

// RegisterRoutes registers the session routes to the Echo group.
func (h *SessionHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateSession)
	g.GET("", h.ListSessions)
	g.GET("/:id", h.GetSession)
	g.PATCH("/:id", h.UpdateSession)
	g.DELETE("/:id", h.DeleteSession)
	g.POST("/:id/start", h.StartSession)
	g.POST("/:id/pause", h.PauseSession)
	g.GET("/:id/events", h.GetSessionEvents)
	g.GET("/:id/positions", h.GetSessionPositions)
}

// CreateSession creates a session in the ready state.
func (h *SessionHandler) CreateSession(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	var req dto.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	session, err := h.sessionService.CreateSession(c.Request().Context(), userID, &req)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, session)
}

// ListSessions lists the caller's sessions, optionally filtered by
// ?status=.
func (h *SessionHandler) ListSessions(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	sessions, err := h.sessionService.ListSessions(c.Request().Context(), userID, c.QueryParam("status"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, sessions)
}

// GetSession returns a session with its positions.
func (h *SessionHandler) GetSession(c echo.Context) error {
	userID, sessionID, err := callerAndSessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	session, err := h.sessionService.GetSession(c.Request().Context(), userID, sessionID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// UpdateSession updates strategy settings of a ready session.
func (h *SessionHandler) UpdateSession(c echo.Context) error {
	userID, sessionID, err := callerAndSessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	var req dto.UpdateSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	session, err := h.sessionService.UpdateSession(c.Request().Context(), userID, sessionID, &req)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// DeleteSession deletes a ready session and its positions and events.
func (h *SessionHandler) DeleteSession(c echo.Context) error {
	userID, sessionID, err := callerAndSessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	if err := h.sessionService.DeleteSession(c.Request().Context(), userID, sessionID); err != nil {
		return h.mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StartSession starts a ready session or resumes a paused one.
func (h *SessionHandler) StartSession(c echo.Context) error {
	userID, sessionID, err := callerAndSessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	session, err := h.sessionService.StartSession(c.Request().Context(), userID, sessionID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// PauseSession pauses a running session.
func (h *SessionHandler) PauseSession(c echo.Context) error {
	userID, sessionID, err := callerAndSessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	session, err := h.sessionService.PauseSession(c.Request().Context(), userID, sessionID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// GetSessionEvents returns the session's audit timeline, newest first.
func (h *SessionHandler) GetSessionEvents(c echo.Context) error {
	userID, sessionID, err := callerAndSessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	events, err := h.sessionService.GetSessionEvents(c.Request().Context(), userID, sessionID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

// GetSessionPositions returns the session's ladder rungs in step order.
func (h *SessionHandler) GetSessionPositions(c echo.Context) error {
	userID, sessionID, err := callerAndSessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	positions, err := h.sessionService.GetSessionPositions(c.Request().Context(), userID, sessionID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, positions)
}

func (h *SessionHandler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Session not found"})
	case errors.Is(err, service.ErrInvalidStateTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrSimulatorUnavailable):
		h.logger.Error("Simulator unavailable", logger.ErrorField(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "Simulator unavailable"})
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		h.logger.Error("Unhandled session error", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
}

func callerID(c echo.Context) (uuid.UUID, error) {
	raw := c.Request().Header.Get(common.HeaderUserID)
	if raw == "" {
		return uuid.Nil, errors.New("missing " + common.HeaderUserID + " header")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("invalid " + common.HeaderUserID + " header")
	}
	return userID, nil
}

func callerAndSessionID(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	userID, err := callerID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("invalid session id")
	}
	return userID, sessionID, nil
}
