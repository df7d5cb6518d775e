package service

import (
	"context"
	"fmt"
	"time"

	"nsplit-trader/internal/entity"
	"nsplit-trader/internal/trading/repository"
	"nsplit-trader/pkg/common"
	"nsplit-trader/pkg/logger"
	"nsplit-trader/pkg/metrics"

	"github.com/google/uuid"
)

// SessionLocker is the slice of the redis client the worker needs to
// coordinate with concurrent replicas.
type SessionLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// WorkerService drives the strategy on a fixed interval over every running
// session. One session's failure never stops the loop or the other sessions
// of the same tick.
type WorkerService interface {
	Start(ctx context.Context)
}

// NewWorkerService creates the strategy worker.
func NewWorkerService(
	sessionRepo repository.SessionRepository,
	strategy StrategyService,
	locker SessionLocker,
	log *logger.Logger,
	pollingInterval time.Duration,
	sessionLockTTL time.Duration,
) WorkerService {
	return &workerService{
		sessionRepo:     sessionRepo,
		strategy:        strategy,
		locker:          locker,
		logger:          log,
		pollingInterval: pollingInterval,
		sessionLockTTL:  sessionLockTTL,
	}
}

type workerService struct {
	sessionRepo     repository.SessionRepository
	strategy        StrategyService
	locker          SessionLocker
	logger          *logger.Logger
	pollingInterval time.Duration
	sessionLockTTL  time.Duration
}

// Start blocks until the context is cancelled, evaluating all running
// sessions once per polling interval.
func (w *workerService) Start(ctx context.Context) {
	w.logger.Info("Strategy worker started",
		logger.StringField("polling_interval", w.pollingInterval.String()),
	)

	ticker := time.NewTicker(w.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Strategy worker stopped")
			return
		case <-ticker.C:
			w.runTick(ctx)
		}
	}
}

func (w *workerService) runTick(ctx context.Context) {
	metrics.StrategyTicks.Inc()

	sessions, err := w.sessionRepo.FindByStatus(ctx, entity.SessionStatusRunning)
	if err != nil {
		w.logger.Error("Failed to list running sessions", logger.ErrorField(err))
		return
	}
	if len(sessions) == 0 {
		return
	}

	for i := range sessions {
		w.evaluateOne(ctx, sessions[i].ID)
	}
}

// evaluateOne evaluates a single session under a best-effort distributed
// lock so concurrent replicas do not double-trade the same session. A Redis
// outage degrades to unlocked evaluation; the in-process loop is already
// sequential.
func (w *workerService) evaluateOne(ctx context.Context, sessionID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SessionsEvaluated.WithLabelValues("error").Inc()
			w.logger.Error("Recovered from panic while evaluating session",
				logger.StringField("session_id", sessionID.String()),
				logger.Field("panic", r),
			)
		}
	}()

	lockKey := fmt.Sprintf(common.RedisKeySessionLock, sessionID)
	acquired, err := w.locker.AcquireLock(ctx, lockKey, w.sessionLockTTL)
	if err != nil {
		w.logger.Warn("Failed to acquire session lock, evaluating without it",
			logger.StringField("session_id", sessionID.String()),
			logger.ErrorField(err),
		)
	} else if !acquired {
		metrics.SessionsEvaluated.WithLabelValues("skipped").Inc()
		w.logger.DebugContext(ctx, "Session locked by another worker, skipping",
			logger.StringField("session_id", sessionID.String()),
		)
		return
	} else {
		defer func() {
			if err := w.locker.ReleaseLock(ctx, lockKey); err != nil {
				w.logger.Warn("Failed to release session lock", logger.ErrorField(err))
			}
		}()
	}

	if err := w.strategy.EvaluateSession(ctx, sessionID); err != nil {
		w.logger.Error("Session evaluation failed",
			logger.StringField("session_id", sessionID.String()),
			logger.ErrorField(err),
		)
	}
}
