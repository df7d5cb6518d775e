package service

import (
	"context"
	"testing"

	"nsplit-trader/internal/entity"
	"nsplit-trader/internal/trading/dto"
	"nsplit-trader/internal/trading/repository"
	"nsplit-trader/pkg/logger"
	"nsplit-trader/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	sessions  *fakeSessionRepo
	positions *fakePositionRepo
	events    *fakeEventRepo
	simulator *fakeSimulator
	svc       SessionService
}

func newSessionFixture() *sessionFixture {
	sessions := newFakeSessionRepo()
	positions := newFakePositionRepo()
	events := newFakeEventRepo()
	simulator := newFakeSimulator(10000)
	return &sessionFixture{
		sessions:  sessions,
		positions: positions,
		events:    events,
		simulator: simulator,
		svc:       NewSessionService(sessions, positions, events, simulator, logger.NewNop()),
	}
}

func validCreateRequest() *dto.CreateSessionRequest {
	return &dto.CreateSessionRequest{
		StockCode:      "005930",
		StockName:      "Samsung Electronics",
		AmountPerStep:  1_000_000,
		MaxSteps:       5,
		SellTriggerPct: 5,
		BuyTriggerPct:  5,
	}
}

func (f *sessionFixture) seed(t *testing.T, userID uuid.UUID, status entity.SessionStatus) uuid.UUID {
	t.Helper()
	session := runningSession()
	session.UserID = userID
	session.Status = status
	require.NoError(t, f.sessions.Create(context.Background(), session))
	return session.ID
}

func TestCreateSessionStartsReady(t *testing.T) {
	f := newSessionFixture()
	userID := uuid.New()

	resp, err := f.svc.CreateSession(context.Background(), userID, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, string(entity.SessionStatusReady), resp.Status)
	assert.Equal(t, userID, resp.UserID)
	assert.Equal(t, 0, resp.CurrentStep)
	assert.Nil(t, resp.FirstBuyPrice)
	assert.Nil(t, resp.StartedAt)
}

func TestCreateSessionValidation(t *testing.T) {
	f := newSessionFixture()
	userID := uuid.New()

	cases := []struct {
		name   string
		mutate func(*dto.CreateSessionRequest)
	}{
		{"missing stock code", func(r *dto.CreateSessionRequest) { r.StockCode = "" }},
		{"non-positive amount", func(r *dto.CreateSessionRequest) { r.AmountPerStep = 0 }},
		{"zero steps", func(r *dto.CreateSessionRequest) { r.MaxSteps = 0 }},
		{"too many steps", func(r *dto.CreateSessionRequest) { r.MaxSteps = 11 }},
		{"buy pct out of range", func(r *dto.CreateSessionRequest) { r.BuyTriggerPct = 100 }},
		{"sell pct out of range", func(r *dto.CreateSessionRequest) { r.SellTriggerPct = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(req)
			_, err := f.svc.CreateSession(context.Background(), userID, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestStartSessionRecordsStartOnce(t *testing.T) {
	f := newSessionFixture()
	userID := uuid.New()
	id := f.seed(t, userID, entity.SessionStatusReady)

	started, err := f.svc.StartSession(context.Background(), userID, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusRunning), started.Status)
	require.NotNil(t, started.StartedAt)
	firstStart := *started.StartedAt
	assert.Len(t, f.events.byType(id, entity.EventTypeStart), 1)

	// The account is provisioned before trading begins.
	assert.True(t, f.simulator.accounts[userID])

	_, err = f.svc.PauseSession(context.Background(), userID, id)
	require.NoError(t, err)

	resumed, err := f.svc.StartSession(context.Background(), userID, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusRunning), resumed.Status)
	require.NotNil(t, resumed.StartedAt)
	assert.Equal(t, firstStart, *resumed.StartedAt)
	assert.Len(t, f.events.byType(id, entity.EventTypeStart), 1)
	assert.Len(t, f.events.byType(id, entity.EventTypeResume), 1)
}

func TestStartSessionRejectsInvalidStates(t *testing.T) {
	f := newSessionFixture()
	userID := uuid.New()

	for _, status := range []entity.SessionStatus{entity.SessionStatusRunning, entity.SessionStatusCompleted} {
		id := f.seed(t, userID, status)
		_, err := f.svc.StartSession(context.Background(), userID, id)
		assert.ErrorIs(t, err, ErrInvalidStateTransition, "status %s", status)
	}
}

func TestPauseSessionOnlyFromRunning(t *testing.T) {
	f := newSessionFixture()
	userID := uuid.New()

	id := f.seed(t, userID, entity.SessionStatusRunning)
	resp, err := f.svc.PauseSession(context.Background(), userID, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStatusPaused), resp.Status)
	assert.Len(t, f.events.byType(id, entity.EventTypePause), 1)

	for _, status := range []entity.SessionStatus{entity.SessionStatusReady, entity.SessionStatusPaused, entity.SessionStatusCompleted} {
		id := f.seed(t, userID, status)
		_, err := f.svc.PauseSession(context.Background(), userID, id)
		assert.ErrorIs(t, err, ErrInvalidStateTransition, "status %s", status)
	}
}

func TestUpdateSessionOnlyWhileReady(t *testing.T) {
	f := newSessionFixture()
	userID := uuid.New()

	id := f.seed(t, userID, entity.SessionStatusReady)
	resp, err := f.svc.UpdateSession(context.Background(), userID, id, &dto.UpdateSessionRequest{
		AmountPerStep: utils.ToPointer(2_000_000.0),
		MaxSteps:      utils.ToPointer(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 2_000_000.0, resp.AmountPerStep)
	assert.Equal(t, 7, resp.MaxSteps)

	runningID := f.seed(t, userID, entity.SessionStatusRunning)
	_, err = f.svc.UpdateSession(context.Background(), userID, runningID, &dto.UpdateSessionRequest{
		MaxSteps: utils.ToPointer(7),
	})
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestUpdateSessionRejectsInvalidSettings(t *testing.T) {
	f := newSessionFixture()
	userID := uuid.New()
	id := f.seed(t, userID, entity.SessionStatusReady)

	_, err := f.svc.UpdateSession(context.Background(), userID, id, &dto.UpdateSessionRequest{
		MaxSteps: utils.ToPointer(0),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteSessionOnlyWhileReady(t *testing.T) {
	f := newSessionFixture()
	userID := uuid.New()

	readyID := f.seed(t, userID, entity.SessionStatusReady)
	require.NoError(t, f.svc.DeleteSession(context.Background(), userID, readyID))
	_, err := f.svc.GetSession(context.Background(), userID, readyID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	runningID := f.seed(t, userID, entity.SessionStatusRunning)
	err = f.svc.DeleteSession(context.Background(), userID, runningID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestSessionsAreScopedToTheOwner(t *testing.T) {
	f := newSessionFixture()
	owner := uuid.New()
	stranger := uuid.New()
	id := f.seed(t, owner, entity.SessionStatusReady)

	_, err := f.svc.GetSession(context.Background(), stranger, id)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	_, err = f.svc.StartSession(context.Background(), stranger, id)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	err = f.svc.DeleteSession(context.Background(), stranger, id)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestListSessionsFiltersByStatus(t *testing.T) {
	f := newSessionFixture()
	userID := uuid.New()
	f.seed(t, userID, entity.SessionStatusReady)
	f.seed(t, userID, entity.SessionStatusRunning)
	f.seed(t, uuid.New(), entity.SessionStatusRunning)

	all, err := f.svc.ListSessions(context.Background(), userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	running, err := f.svc.ListSessions(context.Background(), userID, "running")
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, string(entity.SessionStatusRunning), running[0].Status)
}
