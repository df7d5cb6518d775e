package repository

import (
	"context"
	"time"

	"nsplit-trader/internal/entity"

	"gorm.io/gorm"
)

// PriceHistoryRepository records and serves the append-only price log.
type PriceHistoryRepository interface {
	Create(ctx context.Context, record *entity.SimPriceHistory) error
	FindByStockCode(ctx context.Context, stockCode string, limit int) ([]entity.SimPriceHistory, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewPriceHistoryRepository creates a new GORM-based price history repository.
func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepository{db: db}
}

type priceHistoryRepository struct {
	db *gorm.DB
}

// Create appends a price observation.
func (r *priceHistoryRepository) Create(ctx context.Context, record *entity.SimPriceHistory) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByStockCode returns the most recent observations, newest first.
func (r *priceHistoryRepository) FindByStockCode(ctx context.Context, stockCode string, limit int) ([]entity.SimPriceHistory, error) {
	var history []entity.SimPriceHistory
	err := r.db.WithContext(ctx).
		Where("stock_code = ?", stockCode).
		Order("timestamp DESC").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

// DeleteOlderThan prunes observations before the cutoff and reports how many
// rows were removed.
func (r *priceHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&entity.SimPriceHistory{})
	return res.RowsAffected, res.Error
}
