package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"nsplit-trader/internal/entity"
	"nsplit-trader/internal/trading/dto"
	"nsplit-trader/internal/trading/repository"
	"nsplit-trader/pkg/logger"
	"nsplit-trader/pkg/metrics"
	"nsplit-trader/pkg/telegram"
	"nsplit-trader/pkg/utils"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/datatypes"
)

const (
	errorNotifyCooldown = 15 * time.Minute
)

// StrategyService evaluates one running session against the current market
// price: close positions that reached their sell target, complete the session
// when the ladder is empty again, then open new ladder steps bottom-up.
type StrategyService interface {
	EvaluateSession(ctx context.Context, sessionID uuid.UUID) error
}

// NewStrategyService creates a new strategy service.
func NewStrategyService(
	sessionRepo repository.SessionRepository,
	positionRepo repository.PositionRepository,
	eventRepo repository.SessionEventRepository,
	simulatorRepo repository.SimulatorRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
) StrategyService {
	return &strategyService{
		sessionRepo:   sessionRepo,
		positionRepo:  positionRepo,
		eventRepo:     eventRepo,
		simulatorRepo: simulatorRepo,
		notifier:      notifier,
		logger:        log,
		errNotified:   gocache.New(errorNotifyCooldown, 2*errorNotifyCooldown),
	}
}

type strategyService struct {
	sessionRepo   repository.SessionRepository
	positionRepo  repository.PositionRepository
	eventRepo     repository.SessionEventRepository
	simulatorRepo repository.SimulatorRepository
	notifier      telegram.Notifier
	logger        *logger.Logger

	// errNotified throttles Telegram error alerts per session.
	errNotified *gocache.Cache
}

// EvaluateSession runs one strategy pass over a session. Any failure pauses
// the session with an error event; work persisted before the failure stays
// persisted.
func (s *strategyService) EvaluateSession(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	// The session may have been paused or deleted between listing and
	// evaluation.
	if session.Status != entity.SessionStatusRunning {
		metrics.SessionsEvaluated.WithLabelValues("skipped").Inc()
		return nil
	}

	currentPrice, err := s.simulatorRepo.GetPrice(ctx, session.StockCode)
	if err != nil {
		return s.pauseOnError(ctx, session, fmt.Errorf("failed to fetch price for %s: %w", session.StockCode, err))
	}

	holdings, err := s.positionRepo.FindHoldings(ctx, session.ID)
	if err != nil {
		return s.pauseOnError(ctx, session, err)
	}

	remaining, err := s.sellPass(ctx, session, holdings, currentPrice)
	if err != nil {
		return s.pauseOnError(ctx, session, err)
	}

	if len(remaining) == 0 && session.CurrentStep > 0 {
		if err := s.completeSession(ctx, session); err != nil {
			return s.pauseOnError(ctx, session, err)
		}
		metrics.SessionsEvaluated.WithLabelValues("ok").Inc()
		return nil
	}

	if err := s.buyPass(ctx, session, remaining, currentPrice); err != nil {
		return s.pauseOnError(ctx, session, err)
	}

	metrics.SessionsEvaluated.WithLabelValues("ok").Inc()
	return nil
}

// sellPass closes every holding whose sell target has been reached, lowest
// step first, each fill committed individually. It returns the positions
// still holding afterward.
func (s *strategyService) sellPass(ctx context.Context, session *entity.Session, holdings []entity.Position, currentPrice float64) ([]entity.Position, error) {
	remaining := make([]entity.Position, 0, len(holdings))

	for i := range holdings {
		position := &holdings[i]
		if currentPrice < position.SellTargetPrice {
			remaining = append(remaining, *position)
			continue
		}

		receipt, err := s.simulatorRepo.PlaceSellOrder(ctx, session.UserID, session.StockCode, currentPrice, position.Quantity)
		if err != nil {
			return nil, fmt.Errorf("sell order failed at step %d: %w", position.StepNumber, err)
		}

		now := time.Now().UTC()
		profit := utils.RoundPrice((currentPrice - position.BuyPrice) * float64(position.Quantity))
		position.SellPrice = utils.ToPointer(currentPrice)
		position.SellTime = &now
		position.RealizedProfit = &profit
		position.Status = entity.PositionStatusSold

		if err := s.positionRepo.Update(ctx, position); err != nil {
			return nil, err
		}

		event := &entity.SessionEvent{
			SessionID:  session.ID,
			EventType:  entity.EventTypeSell,
			PositionID: &position.ID,
			Price:      utils.ToPointer(currentPrice),
			Quantity:   utils.ToPointer(position.Quantity),
			Message:    fmt.Sprintf("Sold %d shares at step %d for %.2f, profit %.2f", position.Quantity, position.StepNumber, currentPrice, profit),
			Metadata:   marshalReceipt(receipt),
		}
		if err := s.eventRepo.Create(ctx, event); err != nil {
			return nil, err
		}

		metrics.Orders.WithLabelValues("sell").Inc()
		s.logger.Info("Sell order executed",
			logger.StringField("session_id", session.ID.String()),
			logger.IntField("step", position.StepNumber),
			logger.Float64Field("price", currentPrice),
			logger.Float64Field("profit", profit),
		)
	}

	return remaining, nil
}

// buyPass opens ladder steps whose trigger price has been undercut. Steps are
// walked bottom-up and a holding at any lower step blocks every step above
// it, so at most one step opens per pass.
func (s *strategyService) buyPass(ctx context.Context, session *entity.Session, holdings []entity.Position, currentPrice float64) error {
	firstBuyPrice, err := s.resolveFirstBuyPrice(ctx, session, currentPrice)
	if err != nil {
		return err
	}

	buyRatio := 1 - session.BuyTriggerPct/100
	minHoldingStep := math.MaxInt
	holdingSteps := make(map[int]bool, len(holdings))
	for i := range holdings {
		holdingSteps[holdings[i].StepNumber] = true
		if holdings[i].StepNumber < minHoldingStep {
			minHoldingStep = holdings[i].StepNumber
		}
	}

	for step := 1; step <= session.MaxSteps; step++ {
		stepBuyPrice := utils.RoundPrice(firstBuyPrice * math.Pow(buyRatio, float64(step-1)))
		if currentPrice > stepBuyPrice {
			continue
		}
		if holdingSteps[step] {
			continue
		}
		if step > minHoldingStep {
			continue
		}

		quantity := int64(session.AmountPerStep / stepBuyPrice)
		if quantity <= 0 {
			s.logger.Warn("Step budget buys zero shares, skipping",
				logger.StringField("session_id", session.ID.String()),
				logger.IntField("step", step),
			)
			continue
		}

		receipt, err := s.simulatorRepo.PlaceBuyOrder(ctx, session.UserID, session.StockCode, stepBuyPrice, quantity)
		if err != nil {
			return fmt.Errorf("buy order failed at step %d: %w", step, err)
		}

		position := &entity.Position{
			SessionID:       session.ID,
			StepNumber:      step,
			BuyPrice:        stepBuyPrice,
			Quantity:        quantity,
			BuyTime:         time.Now().UTC(),
			SellTargetPrice: utils.RoundPrice(stepBuyPrice * (1 + session.SellTriggerPct/100)),
			Status:          entity.PositionStatusHolding,
		}
		if err := s.positionRepo.Create(ctx, position); err != nil {
			return err
		}

		if step > session.CurrentStep {
			session.CurrentStep = step
			if err := s.sessionRepo.Update(ctx, session); err != nil {
				return err
			}
		}

		event := &entity.SessionEvent{
			SessionID:  session.ID,
			EventType:  entity.EventTypeBuy,
			PositionID: &position.ID,
			Price:      utils.ToPointer(stepBuyPrice),
			Quantity:   utils.ToPointer(quantity),
			Message:    fmt.Sprintf("Bought %d shares at step %d for %.2f", quantity, step, stepBuyPrice),
			Metadata:   marshalReceipt(receipt),
		}
		if err := s.eventRepo.Create(ctx, event); err != nil {
			return err
		}

		holdingSteps[step] = true
		if step < minHoldingStep {
			minHoldingStep = step
		}

		metrics.Orders.WithLabelValues("buy").Inc()
		s.logger.Info("Buy order executed",
			logger.StringField("session_id", session.ID.String()),
			logger.IntField("step", step),
			logger.Float64Field("price", stepBuyPrice),
		)
	}

	return nil
}

// resolveFirstBuyPrice pins the ladder anchor on the first evaluation: the
// configured initial buy price when set, the current market price otherwise.
// Once written it is never recomputed.
func (s *strategyService) resolveFirstBuyPrice(ctx context.Context, session *entity.Session, currentPrice float64) (float64, error) {
	if session.FirstBuyPrice != nil {
		return *session.FirstBuyPrice, nil
	}

	anchor := currentPrice
	if session.InitialBuyPrice != nil {
		anchor = *session.InitialBuyPrice
	}
	session.FirstBuyPrice = &anchor
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return 0, err
	}

	s.logger.Info("First buy price anchored",
		logger.StringField("session_id", session.ID.String()),
		logger.Float64Field("first_buy_price", anchor),
	)
	return anchor, nil
}

func (s *strategyService) completeSession(ctx context.Context, session *entity.Session) error {
	now := time.Now().UTC()
	session.Status = entity.SessionStatusCompleted
	session.CompletedAt = &now
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return err
	}

	event := &entity.SessionEvent{
		SessionID: session.ID,
		EventType: entity.EventTypeComplete,
		Message:   "All positions sold, session completed",
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return err
	}

	metrics.SessionsCompleted.Inc()
	s.logger.Info("Session completed", logger.StringField("session_id", session.ID.String()))

	if err := s.notifier.SendMessagef("✅ Session completed: %s (%s)", session.StockCode, session.ID); err != nil {
		s.logger.Warn("Failed to send completion notification", logger.ErrorField(err))
	}
	return nil
}

// pauseOnError pauses the session, records an error event and alerts the
// operator. Alerts for the same session are throttled so a flapping
// simulator does not flood the chat.
func (s *strategyService) pauseOnError(ctx context.Context, session *entity.Session, cause error) error {
	metrics.SessionsEvaluated.WithLabelValues("error").Inc()
	s.logger.Error("Pausing session after strategy error",
		logger.StringField("session_id", session.ID.String()),
		logger.ErrorField(cause),
	)

	session.Status = entity.SessionStatusPaused
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		s.logger.Error("Failed to pause session", logger.ErrorField(err))
		return cause
	}

	event := &entity.SessionEvent{
		SessionID: session.ID,
		EventType: entity.EventTypeError,
		Message:   fmt.Sprintf("Error: %v", cause),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.logger.Error("Failed to record error event", logger.ErrorField(err))
	}

	key := session.ID.String()
	if _, alreadySent := s.errNotified.Get(key); !alreadySent {
		s.errNotified.Set(key, struct{}{}, gocache.DefaultExpiration)
		if err := s.notifier.SendMessagef("⚠️ Session paused: %s (%s)\n%v", session.StockCode, session.ID, cause); err != nil {
			s.logger.Warn("Failed to send error notification", logger.ErrorField(err))
		}
	}

	return cause
}

func marshalReceipt(receipt *dto.SimOrderReceipt) datatypes.JSON {
	if receipt == nil {
		return nil
	}
	raw, err := json.Marshal(receipt)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
