package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nsplit-trader/internal/entity"
	"nsplit-trader/internal/trading/dto"
	"nsplit-trader/internal/trading/repository"
	"nsplit-trader/pkg/logger"

	"github.com/google/uuid"
)

var (
	// ErrInvalidStateTransition is returned when a lifecycle guard rejects a
	// requested session transition or mutation.
	ErrInvalidStateTransition = errors.New("invalid session state transition")
	// ErrValidation is returned when strategy settings fail validation.
	ErrValidation = errors.New("invalid session settings")
)

const (
	minSteps = 1
	maxSteps = 10
)

// SessionService manages the session lifecycle exposed to the request side:
// plain state transitions with the guards of the session state machine,
// no strategy logic.
type SessionService interface {
	CreateSession(ctx context.Context, userID uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, userID uuid.UUID, status string) ([]dto.SessionResponse, error)
	GetSession(ctx context.Context, userID, id uuid.UUID) (*dto.SessionDetailResponse, error)
	UpdateSession(ctx context.Context, userID, id uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, userID, id uuid.UUID) error
	StartSession(ctx context.Context, userID, id uuid.UUID) (*dto.SessionResponse, error)
	PauseSession(ctx context.Context, userID, id uuid.UUID) (*dto.SessionResponse, error)
	GetSessionEvents(ctx context.Context, userID, id uuid.UUID) ([]dto.SessionEventResponse, error)
	GetSessionPositions(ctx context.Context, userID, id uuid.UUID) ([]dto.PositionResponse, error)
}

// NewSessionService creates a new session service.
func NewSessionService(
	sessionRepo repository.SessionRepository,
	positionRepo repository.PositionRepository,
	eventRepo repository.SessionEventRepository,
	simulatorRepo repository.SimulatorRepository,
	log *logger.Logger,
) SessionService {
	return &sessionService{
		sessionRepo:   sessionRepo,
		positionRepo:  positionRepo,
		eventRepo:     eventRepo,
		simulatorRepo: simulatorRepo,
		logger:        log,
	}
}

type sessionService struct {
	sessionRepo   repository.SessionRepository
	positionRepo  repository.PositionRepository
	eventRepo     repository.SessionEventRepository
	simulatorRepo repository.SimulatorRepository
	logger        *logger.Logger
}

// CreateSession creates a session in the ready state.
func (s *sessionService) CreateSession(ctx context.Context, userID uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	if err := validateStrategySettings(req.StockCode, req.AmountPerStep, req.MaxSteps, req.BuyTriggerPct, req.SellTriggerPct); err != nil {
		return nil, err
	}

	session := &entity.Session{
		UserID:          userID,
		StockCode:       req.StockCode,
		StockName:       req.StockName,
		InitialBuyPrice: req.InitialBuyPrice,
		AmountPerStep:   req.AmountPerStep,
		MaxSteps:        req.MaxSteps,
		SellTriggerPct:  req.SellTriggerPct,
		BuyTriggerPct:   req.BuyTriggerPct,
		Status:          entity.SessionStatusReady,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Session created",
		logger.StringField("session_id", session.ID.String()),
		logger.StringField("stock_code", session.StockCode),
	)
	return mapToSessionResponse(session), nil
}

// ListSessions lists the user's sessions, newest first, optionally filtered
// by status.
func (s *sessionService) ListSessions(ctx context.Context, userID uuid.UUID, status string) ([]dto.SessionResponse, error) {
	sessions, err := s.sessionRepo.FindByUser(ctx, userID, entity.SessionStatus(status))
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		responses = append(responses, *mapToSessionResponse(&sessions[i]))
	}
	return responses, nil
}

// GetSession retrieves a session with its positions.
func (s *sessionService) GetSession(ctx context.Context, userID, id uuid.UUID) (*dto.SessionDetailResponse, error) {
	session, err := s.findOwned(ctx, userID, id, true)
	if err != nil {
		return nil, err
	}

	detail := &dto.SessionDetailResponse{
		SessionResponse: *mapToSessionResponse(session),
		Positions:       make([]dto.PositionResponse, 0, len(session.Positions)),
	}
	for i := range session.Positions {
		detail.Positions = append(detail.Positions, *mapToPositionResponse(&session.Positions[i]))
	}
	return detail, nil
}

// UpdateSession updates strategy settings; only permitted in ready.
func (s *sessionService) UpdateSession(ctx context.Context, userID, id uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	session, err := s.findOwned(ctx, userID, id, false)
	if err != nil {
		return nil, err
	}

	if session.Status != entity.SessionStatusReady {
		return nil, fmt.Errorf("%w: can only update a session in ready status", ErrInvalidStateTransition)
	}

	if req.StockCode != nil {
		session.StockCode = *req.StockCode
	}
	if req.StockName != nil {
		session.StockName = *req.StockName
	}
	if req.InitialBuyPrice != nil {
		session.InitialBuyPrice = req.InitialBuyPrice
	}
	if req.AmountPerStep != nil {
		session.AmountPerStep = *req.AmountPerStep
	}
	if req.MaxSteps != nil {
		session.MaxSteps = *req.MaxSteps
	}
	if req.SellTriggerPct != nil {
		session.SellTriggerPct = *req.SellTriggerPct
	}
	if req.BuyTriggerPct != nil {
		session.BuyTriggerPct = *req.BuyTriggerPct
	}

	if err := validateStrategySettings(session.StockCode, session.AmountPerStep, session.MaxSteps, session.BuyTriggerPct, session.SellTriggerPct); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return mapToSessionResponse(session), nil
}

// DeleteSession removes a session and everything it owns; only permitted
// in ready.
func (s *sessionService) DeleteSession(ctx context.Context, userID, id uuid.UUID) error {
	session, err := s.findOwned(ctx, userID, id, false)
	if err != nil {
		return err
	}

	if session.Status != entity.SessionStatusReady {
		return fmt.Errorf("%w: can only delete a session in ready status", ErrInvalidStateTransition)
	}

	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Session deleted", logger.StringField("session_id", id.String()))
	return nil
}

// StartSession starts a ready session or resumes a paused one. The first
// start records the start timestamp; a resume leaves timestamps untouched.
func (s *sessionService) StartSession(ctx context.Context, userID, id uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.findOwned(ctx, userID, id, false)
	if err != nil {
		return nil, err
	}

	if session.Status != entity.SessionStatusReady && session.Status != entity.SessionStatusPaused {
		return nil, fmt.Errorf("%w: cannot start a session in %s status", ErrInvalidStateTransition, session.Status)
	}

	// The account must exist before the first order; creation is idempotent.
	if err := s.simulatorRepo.EnsureAccount(ctx, session.UserID); err != nil {
		return nil, fmt.Errorf("failed to provision simulator account: %w", err)
	}

	eventType := entity.EventTypeResume
	message := "Session resumed"
	if session.Status == entity.SessionStatusReady {
		now := time.Now().UTC()
		session.StartedAt = &now
		eventType = entity.EventTypeStart
		message = "Session started"
	}
	session.Status = entity.SessionStatusRunning

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	event := &entity.SessionEvent{
		SessionID: session.ID,
		EventType: eventType,
		Message:   message,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("Session running",
		logger.StringField("session_id", session.ID.String()),
		logger.StringField("event", string(eventType)),
	)
	return mapToSessionResponse(session), nil
}

// PauseSession pauses a running session.
func (s *sessionService) PauseSession(ctx context.Context, userID, id uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.findOwned(ctx, userID, id, false)
	if err != nil {
		return nil, err
	}

	if session.Status != entity.SessionStatusRunning {
		return nil, fmt.Errorf("%w: can only pause a running session", ErrInvalidStateTransition)
	}

	session.Status = entity.SessionStatusPaused
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	event := &entity.SessionEvent{
		SessionID: session.ID,
		EventType: entity.EventTypePause,
		Message:   "Session paused",
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	return mapToSessionResponse(session), nil
}

// GetSessionEvents returns the session's audit timeline, newest first.
func (s *sessionService) GetSessionEvents(ctx context.Context, userID, id uuid.UUID) ([]dto.SessionEventResponse, error) {
	if _, err := s.findOwned(ctx, userID, id, false); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.FindBySessionID(ctx, id)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SessionEventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, *mapToEventResponse(&events[i]))
	}
	return responses, nil
}

// GetSessionPositions returns the session's ladder rungs in step order.
func (s *sessionService) GetSessionPositions(ctx context.Context, userID, id uuid.UUID) ([]dto.PositionResponse, error) {
	if _, err := s.findOwned(ctx, userID, id, false); err != nil {
		return nil, err
	}

	positions, err := s.positionRepo.FindBySessionID(ctx, id)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.PositionResponse, 0, len(positions))
	for i := range positions {
		responses = append(responses, *mapToPositionResponse(&positions[i]))
	}
	return responses, nil
}

// findOwned loads a session and hides other users' sessions behind not-found.
func (s *sessionService) findOwned(ctx context.Context, userID, id uuid.UUID, withPositions bool) (*entity.Session, error) {
	var (
		session *entity.Session
		err     error
	)
	if withPositions {
		session, err = s.sessionRepo.FindByIDWithPositions(ctx, id)
	} else {
		session, err = s.sessionRepo.FindByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, repository.ErrSessionNotFound
	}
	return session, nil
}

func validateStrategySettings(stockCode string, amountPerStep float64, steps int, buyPct, sellPct float64) error {
	switch {
	case stockCode == "":
		return fmt.Errorf("%w: stock_code is required", ErrValidation)
	case amountPerStep <= 0:
		return fmt.Errorf("%w: amount_per_step must be positive", ErrValidation)
	case steps < minSteps || steps > maxSteps:
		return fmt.Errorf("%w: max_steps must be between %d and %d", ErrValidation, minSteps, maxSteps)
	case buyPct <= 0 || buyPct >= 100:
		return fmt.Errorf("%w: buy_trigger_pct must be in (0, 100)", ErrValidation)
	case sellPct <= 0 || sellPct >= 100:
		return fmt.Errorf("%w: sell_trigger_pct must be in (0, 100)", ErrValidation)
	}
	return nil
}

func mapToSessionResponse(session *entity.Session) *dto.SessionResponse {
	return &dto.SessionResponse{
		ID:              session.ID,
		UserID:          session.UserID,
		StockCode:       session.StockCode,
		StockName:       session.StockName,
		InitialBuyPrice: session.InitialBuyPrice,
		AmountPerStep:   session.AmountPerStep,
		MaxSteps:        session.MaxSteps,
		SellTriggerPct:  session.SellTriggerPct,
		BuyTriggerPct:   session.BuyTriggerPct,
		Status:          string(session.Status),
		CurrentStep:     session.CurrentStep,
		FirstBuyPrice:   session.FirstBuyPrice,
		CreatedAt:       session.CreatedAt,
		StartedAt:       session.StartedAt,
		CompletedAt:     session.CompletedAt,
	}
}

func mapToPositionResponse(p *entity.Position) *dto.PositionResponse {
	return &dto.PositionResponse{
		ID:              p.ID,
		SessionID:       p.SessionID,
		StepNumber:      p.StepNumber,
		BuyPrice:        p.BuyPrice,
		Quantity:        p.Quantity,
		BuyTime:         p.BuyTime,
		SellTargetPrice: p.SellTargetPrice,
		SellPrice:       p.SellPrice,
		SellTime:        p.SellTime,
		RealizedProfit:  p.RealizedProfit,
		Status:          string(p.Status),
	}
}

func mapToEventResponse(e *entity.SessionEvent) *dto.SessionEventResponse {
	return &dto.SessionEventResponse{
		ID:         e.ID,
		SessionID:  e.SessionID,
		EventType:  string(e.EventType),
		PositionID: e.PositionID,
		Price:      e.Price,
		Quantity:   e.Quantity,
		Message:    e.Message,
		Metadata:   []byte(e.Metadata),
		CreatedAt:  e.CreatedAt,
	}
}
