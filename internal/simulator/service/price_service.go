package service

import (
	"context"
	"fmt"
	"time"

	"nsplit-trader/internal/entity"
	"nsplit-trader/internal/simulator/dto"
	"nsplit-trader/internal/simulator/engine"
	"nsplit-trader/internal/simulator/repository"
	"nsplit-trader/pkg/common"
	"nsplit-trader/pkg/logger"
	redisPkg "nsplit-trader/pkg/redis"
)

// PriceService serves current prices and the price history log.
type PriceService interface {
	GetPrice(ctx context.Context, stockCode string) (*dto.PriceResponse, error)
	SetPrice(ctx context.Context, stockCode string, price float64) (*dto.PriceResponse, error)
	GetHistory(ctx context.Context, stockCode string, limit int) ([]dto.PriceHistoryResponse, error)
}

// NewPriceService creates a new price service.
func NewPriceService(generator *engine.PriceGenerator, historyRepo repository.PriceHistoryRepository, redisClient *redisPkg.Client, log *logger.Logger) PriceService {
	return &priceService{
		generator:   generator,
		historyRepo: historyRepo,
		redisClient: redisClient,
		logger:      log,
	}
}

type priceService struct {
	generator   *engine.PriceGenerator
	historyRepo repository.PriceHistoryRepository
	redisClient *redisPkg.Client
	logger      *logger.Logger
}

// GetPrice returns the stock's current price, initializing the walk on first
// access. Every observation lands in the append-only history log.
func (s *priceService) GetPrice(ctx context.Context, stockCode string) (*dto.PriceResponse, error) {
	price := s.generator.Peek(stockCode)

	if err := s.recordObservation(ctx, stockCode, price); err != nil {
		return nil, err
	}

	return &dto.PriceResponse{
		StockCode: stockCode,
		Price:     price,
		Timestamp: time.Now().UTC(),
	}, nil
}

// SetPrice manually overrides the stock's price.
func (s *priceService) SetPrice(ctx context.Context, stockCode string, price float64) (*dto.PriceResponse, error) {
	s.generator.SetPrice(stockCode, price)
	current := s.generator.Peek(stockCode)

	if err := s.recordObservation(ctx, stockCode, current); err != nil {
		return nil, err
	}

	return &dto.PriceResponse{
		StockCode: stockCode,
		Price:     current,
		Timestamp: time.Now().UTC(),
	}, nil
}

// GetHistory returns recent price observations, newest first.
func (s *priceService) GetHistory(ctx context.Context, stockCode string, limit int) ([]dto.PriceHistoryResponse, error) {
	records, err := s.historyRepo.FindByStockCode(ctx, stockCode, limit)
	if err != nil {
		return nil, err
	}

	history := make([]dto.PriceHistoryResponse, 0, len(records))
	for _, rec := range records {
		history = append(history, dto.PriceHistoryResponse{
			StockCode: rec.StockCode,
			Price:     rec.Price,
			Timestamp: rec.Timestamp,
		})
	}
	return history, nil
}

func (s *priceService) recordObservation(ctx context.Context, stockCode string, price float64) error {
	record := &entity.SimPriceHistory{StockCode: stockCode, Price: price}
	if err := s.historyRepo.Create(ctx, record); err != nil {
		return err
	}

	// Best effort mirror; the database log is the source of truth.
	key := fmt.Sprintf(common.RedisKeyLastPrice, stockCode)
	if err := s.redisClient.Set(ctx, key, price, 0).Err(); err != nil {
		s.logger.Warn("Failed to mirror last price to redis", logger.ErrorField(err), logger.StringField("stock_code", stockCode))
	}
	return nil
}
