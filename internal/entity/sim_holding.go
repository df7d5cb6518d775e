package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SimHolding is one stock position inside a simulated account, carrying the
// volume-weighted average cost. A holding whose quantity reaches zero is
// removed from the table entirely.
type SimHolding struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_holdings_account_stock" json:"account_id"`
	StockCode   string    `gorm:"size:10;not null;uniqueIndex:uq_holdings_account_stock" json:"stock_code"`
	Quantity    int64     `gorm:"not null;default:0" json:"quantity"`
	AvgBuyPrice float64   `gorm:"not null;default:0" json:"avg_buy_price"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SimHolding) TableName() string {
	return "sim_holdings"
}

func (h *SimHolding) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// ApplyBuy folds a fill into the holding using incremental volume-weighted
// average cost.
func (h *SimHolding) ApplyBuy(price float64, quantity int64) {
	total := h.Quantity + quantity
	h.AvgBuyPrice = (h.AvgBuyPrice*float64(h.Quantity) + price*float64(quantity)) / float64(total)
	h.Quantity = total
}

// ApplySell decrements the quantity. Average cost only changes on buys.
func (h *SimHolding) ApplySell(quantity int64) {
	h.Quantity -= quantity
}
