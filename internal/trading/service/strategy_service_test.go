package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"nsplit-trader/internal/entity"
	"nsplit-trader/pkg/logger"
	"nsplit-trader/pkg/telegram"
	"nsplit-trader/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type strategyFixture struct {
	sessions  *fakeSessionRepo
	positions *fakePositionRepo
	events    *fakeEventRepo
	simulator *fakeSimulator
	strategy  StrategyService
}

func newStrategyFixture(t *testing.T, price float64) *strategyFixture {
	t.Helper()
	sessions := newFakeSessionRepo()
	positions := newFakePositionRepo()
	events := newFakeEventRepo()
	simulator := newFakeSimulator(price)

	notifier, err := telegram.NewClient("", 0)
	require.NoError(t, err)

	return &strategyFixture{
		sessions:  sessions,
		positions: positions,
		events:    events,
		simulator: simulator,
		strategy:  NewStrategyService(sessions, positions, events, simulator, notifier, logger.NewNop()),
	}
}

func (f *strategyFixture) addSession(t *testing.T, session *entity.Session) *entity.Session {
	t.Helper()
	if session.Status == "" {
		session.Status = entity.SessionStatusRunning
	}
	require.NoError(t, f.sessions.Create(context.Background(), session))
	return session
}

func runningSession() *entity.Session {
	return &entity.Session{
		UserID:         uuid.New(),
		StockCode:      "005930",
		StockName:      "Samsung Electronics",
		AmountPerStep:  1_000_000,
		MaxSteps:       3,
		SellTriggerPct: 5,
		BuyTriggerPct:  5,
		Status:         entity.SessionStatusRunning,
	}
}

func TestEvaluateSessionAnchorsFirstBuyPriceFromMarket(t *testing.T) {
	f := newStrategyFixture(t, 10000)
	session := f.addSession(t, runningSession())

	require.NoError(t, f.strategy.EvaluateSession(context.Background(), session.ID))

	stored := f.sessions.get(session.ID)
	require.NotNil(t, stored.FirstBuyPrice)
	assert.Equal(t, 10000.0, *stored.FirstBuyPrice)
}

func TestEvaluateSessionPrefersConfiguredInitialBuyPrice(t *testing.T) {
	f := newStrategyFixture(t, 9000)
	session := runningSession()
	session.InitialBuyPrice = utils.ToPointer(12000.0)
	f.addSession(t, session)

	require.NoError(t, f.strategy.EvaluateSession(context.Background(), session.ID))

	stored := f.sessions.get(session.ID)
	require.NotNil(t, stored.FirstBuyPrice)
	assert.Equal(t, 12000.0, *stored.FirstBuyPrice)
}

func TestEvaluateSessionFirstBuyPriceIsImmutable(t *testing.T) {
	f := newStrategyFixture(t, 8000)
	session := runningSession()
	session.FirstBuyPrice = utils.ToPointer(10000.0)
	session.InitialBuyPrice = utils.ToPointer(12000.0)
	f.addSession(t, session)

	require.NoError(t, f.strategy.EvaluateSession(context.Background(), session.ID))

	stored := f.sessions.get(session.ID)
	assert.Equal(t, 10000.0, *stored.FirstBuyPrice)
}

func TestEvaluateSessionOpensFirstStepAtTriggerPrice(t *testing.T) {
	f := newStrategyFixture(t, 10000)
	session := f.addSession(t, runningSession())

	require.NoError(t, f.strategy.EvaluateSession(context.Background(), session.ID))

	orders := f.simulator.placedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, "buy", orders[0].Side)
	assert.Equal(t, 10000.0, orders[0].Price)
	assert.Equal(t, int64(100), orders[0].Quantity)

	holdings, err := f.positions.FindHoldings(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, 1, holdings[0].StepNumber)
	assert.Equal(t, 10000.0, holdings[0].BuyPrice)
	assert.Equal(t, 10500.0, holdings[0].SellTargetPrice)

	stored := f.sessions.get(session.ID)
	assert.Equal(t, 1, stored.CurrentStep)
	assert.Len(t, f.events.byType(session.ID, entity.EventTypeBuy), 1)
}

func TestEvaluateSessionFillsOnlyLowestEligibleStep(t *testing.T) {
	// Price is below both the step 1 and step 2 trigger, but the step 1
	// fill blocks step 2 within the same tick.
	f := newStrategyFixture(t, 9000)
	session := runningSession()
	session.InitialBuyPrice = utils.ToPointer(10000.0)
	session.BuyTriggerPct = 10
	f.addSession(t, session)

	require.NoError(t, f.strategy.EvaluateSession(context.Background(), session.ID))

	orders := f.simulator.placedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, 10000.0, orders[0].Price)

	stored := f.sessions.get(session.ID)
	assert.Equal(t, 1, stored.CurrentStep)
}

func TestEvaluateSessionHoldingBlocksDeeperSteps(t *testing.T) {
	f := newStrategyFixture(t, 9500)
	session := runningSession()
	session.FirstBuyPrice = utils.ToPointer(10000.0)
	session.CurrentStep = 1
	f.addSession(t, session)

	require.NoError(t, f.positions.Create(context.Background(), &entity.Position{
		SessionID:       session.ID,
		StepNumber:      1,
		BuyPrice:        10000,
		Quantity:        100,
		BuyTime:         time.Now().UTC(),
		SellTargetPrice: 10500,
		Status:          entity.PositionStatusHolding,
	}))

	require.NoError(t, f.strategy.EvaluateSession(context.Background(), session.ID))

	assert.Empty(t, f.simulator.placedOrders())
	assert.Equal(t, entity.SessionStatusRunning, f.sessions.get(session.ID).Status)
}

func TestEvaluateSessionSellsAtCurrentPriceAndCompletes(t *testing.T) {
	f := newStrategyFixture(t, 10600)
	session := runningSession()
	session.FirstBuyPrice = utils.ToPointer(10000.0)
	session.CurrentStep = 1
	f.addSession(t, session)

	require.NoError(t, f.positions.Create(context.Background(), &entity.Position{
		SessionID:       session.ID,
		StepNumber:      1,
		BuyPrice:        10000,
		Quantity:        100,
		BuyTime:         time.Now().UTC(),
		SellTargetPrice: 10500,
		Status:          entity.PositionStatusHolding,
	}))

	require.NoError(t, f.strategy.EvaluateSession(context.Background(), session.ID))

	orders := f.simulator.placedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, "sell", orders[0].Side)
	assert.Equal(t, 10600.0, orders[0].Price)
	assert.Equal(t, int64(100), orders[0].Quantity)

	positions, err := f.positions.FindBySessionID(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	sold := positions[0]
	assert.Equal(t, entity.PositionStatusSold, sold.Status)
	require.NotNil(t, sold.SellPrice)
	assert.Equal(t, 10600.0, *sold.SellPrice)
	require.NotNil(t, sold.RealizedProfit)
	assert.Equal(t, 60000.0, *sold.RealizedProfit)
	assert.NotNil(t, sold.SellTime)

	stored := f.sessions.get(session.ID)
	assert.Equal(t, entity.SessionStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	assert.Len(t, f.events.byType(session.ID, entity.EventTypeSell), 1)
	assert.Len(t, f.events.byType(session.ID, entity.EventTypeComplete), 1)
}

func TestEvaluateSessionBelowTargetHoldsPosition(t *testing.T) {
	f := newStrategyFixture(t, 10400)
	session := runningSession()
	session.FirstBuyPrice = utils.ToPointer(10000.0)
	session.CurrentStep = 1
	f.addSession(t, session)

	require.NoError(t, f.positions.Create(context.Background(), &entity.Position{
		SessionID:       session.ID,
		StepNumber:      1,
		BuyPrice:        10000,
		Quantity:        100,
		BuyTime:         time.Now().UTC(),
		SellTargetPrice: 10500,
		Status:          entity.PositionStatusHolding,
	}))

	require.NoError(t, f.strategy.EvaluateSession(context.Background(), session.ID))

	assert.Empty(t, f.simulator.placedOrders())
	assert.Equal(t, entity.SessionStatusRunning, f.sessions.get(session.ID).Status)
}

func TestEvaluateSessionZeroQuantitySkipsSilently(t *testing.T) {
	f := newStrategyFixture(t, 1000)
	session := runningSession()
	session.AmountPerStep = 500
	f.addSession(t, session)

	require.NoError(t, f.strategy.EvaluateSession(context.Background(), session.ID))

	assert.Empty(t, f.simulator.placedOrders())
	stored := f.sessions.get(session.ID)
	assert.Equal(t, entity.SessionStatusRunning, stored.Status)
	assert.Equal(t, 0, stored.CurrentStep)
	assert.Empty(t, f.events.byType(session.ID, entity.EventTypeError))
}

func TestEvaluateSessionPriceFailurePausesWithErrorEvent(t *testing.T) {
	f := newStrategyFixture(t, 10000)
	f.simulator.priceErr = errors.New("connection refused")
	session := f.addSession(t, runningSession())

	err := f.strategy.EvaluateSession(context.Background(), session.ID)
	require.Error(t, err)

	stored := f.sessions.get(session.ID)
	assert.Equal(t, entity.SessionStatusPaused, stored.Status)
	events := f.events.byType(session.ID, entity.EventTypeError)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Message, "connection refused")
}

func TestEvaluateSessionBuyFailurePausesSession(t *testing.T) {
	f := newStrategyFixture(t, 10000)
	f.simulator.buyErr = errors.New("insufficient funds")
	session := f.addSession(t, runningSession())

	err := f.strategy.EvaluateSession(context.Background(), session.ID)
	require.Error(t, err)

	stored := f.sessions.get(session.ID)
	assert.Equal(t, entity.SessionStatusPaused, stored.Status)
	assert.Len(t, f.events.byType(session.ID, entity.EventTypeError), 1)
	assert.Empty(t, f.events.byType(session.ID, entity.EventTypeBuy))
}

func TestEvaluateSessionSellFailureKeepsEarlierFills(t *testing.T) {
	// Two holdings above target; the first sell succeeds, the second fails.
	// The first fill must stay committed while the session pauses.
	f := newStrategyFixture(t, 11000)
	session := runningSession()
	session.FirstBuyPrice = utils.ToPointer(10000.0)
	session.CurrentStep = 2
	f.addSession(t, session)

	for step, buyPrice := range map[int]float64{1: 10000, 2: 9500} {
		require.NoError(t, f.positions.Create(context.Background(), &entity.Position{
			SessionID:       session.ID,
			StepNumber:      step,
			BuyPrice:        buyPrice,
			Quantity:        100,
			BuyTime:         time.Now().UTC(),
			SellTargetPrice: buyPrice * 1.05,
			Status:          entity.PositionStatusHolding,
		}))
	}

	f.simulator.failSellAfter(1, errors.New("simulator unavailable"))

	err := f.strategy.EvaluateSession(context.Background(), session.ID)
	require.Error(t, err)

	positions, findErr := f.positions.FindBySessionID(context.Background(), session.ID)
	require.NoError(t, findErr)
	var soldSteps []int
	for _, p := range positions {
		if p.Status == entity.PositionStatusSold {
			soldSteps = append(soldSteps, p.StepNumber)
		}
	}
	assert.Equal(t, []int{1}, soldSteps)
	assert.Equal(t, entity.SessionStatusPaused, f.sessions.get(session.ID).Status)
}

func TestEvaluateSessionSkipsNonRunningSessions(t *testing.T) {
	f := newStrategyFixture(t, 10000)
	session := runningSession()
	session.Status = entity.SessionStatusPaused
	f.addSession(t, session)

	require.NoError(t, f.strategy.EvaluateSession(context.Background(), session.ID))

	assert.Empty(t, f.simulator.placedOrders())
	assert.Equal(t, entity.SessionStatusPaused, f.sessions.get(session.ID).Status)
}

func TestEvaluateSessionCompletesBeforeBuyPassWhenLadderEmpty(t *testing.T) {
	// Step 1 already sold on an earlier tick, leaving the ladder empty
	// with current_step > 0. Completion fires right after the sell pass,
	// so the buy pass never runs even though the price sits on the
	// step 2 trigger.
	f := newStrategyFixture(t, 9400)
	session := runningSession()
	session.FirstBuyPrice = utils.ToPointer(10000.0)
	session.BuyTriggerPct = 5
	session.CurrentStep = 1
	f.addSession(t, session)

	require.NoError(t, f.strategy.EvaluateSession(context.Background(), session.ID))

	// No holdings and current_step > 0: the session completed before the
	// buy pass could run.
	stored := f.sessions.get(session.ID)
	assert.Equal(t, entity.SessionStatusCompleted, stored.Status)
	assert.Empty(t, f.simulator.placedOrders())
}
