package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderSide is the direction of an executed order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatusFilled is the only status the simulator produces; execution is
// instantaneous with no partial fills.
const OrderStatusFilled = "filled"

// SimOrder is the immutable receipt of an executed buy or sell. It is
// created in the same transaction as the account mutation it represents.
type SimOrder struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID  uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	StockCode  string    `gorm:"size:10;not null" json:"stock_code"`
	OrderType  OrderSide `gorm:"size:10;not null" json:"order_type"`
	Price      float64   `gorm:"not null" json:"price"`
	Quantity   int64     `gorm:"not null" json:"quantity"`
	Status     string    `gorm:"size:20;not null;default:filled" json:"status"`
	ExecutedAt time.Time `gorm:"autoCreateTime" json:"executed_at"`
}

func (SimOrder) TableName() string {
	return "sim_orders"
}

func (o *SimOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
