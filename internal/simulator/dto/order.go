package dto

import (
	"time"

	"github.com/google/uuid"
)

// OrderRequest places a buy or sell against a user's simulated account.
type OrderRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	StockCode string    `json:"stock_code"`
	Price     float64   `json:"price"`
	Quantity  int64     `json:"quantity"`
}

// OrderResponse is the immutable receipt of an executed order.
type OrderResponse struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"account_id"`
	StockCode  string    `json:"stock_code"`
	OrderType  string    `json:"order_type"`
	Price      float64   `json:"price"`
	Quantity   int64     `json:"quantity"`
	Status     string    `json:"status"`
	ExecutedAt time.Time `json:"executed_at"`
}
