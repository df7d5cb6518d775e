package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SimPriceHistory is the append-only log of simulated prices, one row per
// price observation.
type SimPriceHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StockCode string    `gorm:"size:10;not null;index:idx_price_history_stock_ts" json:"stock_code"`
	Price     float64   `gorm:"not null" json:"price"`
	Timestamp time.Time `gorm:"autoCreateTime;index:idx_price_history_stock_ts" json:"timestamp"`
}

func (SimPriceHistory) TableName() string {
	return "sim_price_history"
}

func (p *SimPriceHistory) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
