package service

import (
	"context"
	"fmt"
	"time"

	"nsplit-trader/internal/entity"
	"nsplit-trader/internal/simulator/engine"
	"nsplit-trader/internal/simulator/repository"
	"nsplit-trader/pkg/common"
	"nsplit-trader/pkg/logger"
	"nsplit-trader/pkg/metrics"
	redisPkg "nsplit-trader/pkg/redis"

	"github.com/robfig/cron/v3"
)

// PriceUpdaterService drives the simulated market: it advances every
// tracked price on a fixed interval and prunes old history rows on a cron
// schedule. It runs regardless of any trading session's state.
type PriceUpdaterService interface {
	Start(ctx context.Context)
	UpdateAllPrices(ctx context.Context)
}

// NewPriceUpdaterService creates a new price updater.
func NewPriceUpdaterService(
	generator *engine.PriceGenerator,
	historyRepo repository.PriceHistoryRepository,
	redisClient *redisPkg.Client,
	log *logger.Logger,
	updateInterval time.Duration,
	historyRetention time.Duration,
	pruneCronExpr string,
) (PriceUpdaterService, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	pruneSchedule, err := parser.Parse(pruneCronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid history prune cron expression %q: %w", pruneCronExpr, err)
	}

	return &priceUpdaterService{
		generator:        generator,
		historyRepo:      historyRepo,
		redisClient:      redisClient,
		logger:           log,
		updateInterval:   updateInterval,
		historyRetention: historyRetention,
		pruneSchedule:    pruneSchedule,
	}, nil
}

type priceUpdaterService struct {
	generator        *engine.PriceGenerator
	historyRepo      repository.PriceHistoryRepository
	redisClient      *redisPkg.Client
	logger           *logger.Logger
	updateInterval   time.Duration
	historyRetention time.Duration
	pruneSchedule    cron.Schedule
}

// Start begins the periodic price update loop. It returns when the context
// is canceled, letting the in-flight tick finish.
func (s *priceUpdaterService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	nextPrune := s.pruneSchedule.Next(time.Now())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Price updater stopping")
			return
		case <-ticker.C:
			s.UpdateAllPrices(ctx)

			if now := time.Now(); now.After(nextPrune) {
				s.pruneHistory(ctx)
				nextPrune = s.pruneSchedule.Next(now)
			}
		}
	}
}

// UpdateAllPrices advances the random walk for every tracked stock and
// appends the new observation to the history log.
func (s *priceUpdaterService) UpdateAllPrices(ctx context.Context) {
	codes := s.generator.TrackedCodes()
	metrics.TrackedSymbols.Set(float64(len(codes)))

	for _, code := range codes {
		price := s.generator.Update(code)
		metrics.PriceUpdates.Inc()

		record := &entity.SimPriceHistory{StockCode: code, Price: price}
		if err := s.historyRepo.Create(ctx, record); err != nil {
			s.logger.Error("Failed to record price observation", logger.ErrorField(err), logger.StringField("stock_code", code))
			continue
		}

		key := fmt.Sprintf(common.RedisKeyLastPrice, code)
		if err := s.redisClient.Set(ctx, key, price, 0).Err(); err != nil {
			s.logger.Warn("Failed to mirror last price to redis", logger.ErrorField(err), logger.StringField("stock_code", code))
		}

		s.logger.DebugContext(ctx, "Price updated", logger.StringField("stock_code", code), logger.Float64Field("price", price))
	}
}

func (s *priceUpdaterService) pruneHistory(ctx context.Context) {
	cutoff := time.Now().Add(-s.historyRetention)
	removed, err := s.historyRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to prune price history", logger.ErrorField(err))
		return
	}
	s.logger.Info("Pruned price history", logger.Field("rows", removed), logger.Field("cutoff", cutoff))
}
