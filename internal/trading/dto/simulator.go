package dto

import (
	"time"

	"github.com/google/uuid"
)

// SimPriceResponse is the simulator's answer to a price request.
type SimPriceResponse struct {
	StockCode string    `json:"stock_code"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// SimOrderRequest is the payload for the simulator's buy/sell endpoints.
type SimOrderRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	StockCode string    `json:"stock_code"`
	Price     float64   `json:"price"`
	Quantity  int64     `json:"quantity"`
}

// SimOrderReceipt is the simulator's order execution receipt.
type SimOrderReceipt struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"account_id"`
	StockCode  string    `json:"stock_code"`
	OrderType  string    `json:"order_type"`
	Price      float64   `json:"price"`
	Quantity   int64     `json:"quantity"`
	Status     string    `json:"status"`
	ExecutedAt time.Time `json:"executed_at"`
}

// SimCreateAccountRequest provisions a simulated account.
type SimCreateAccountRequest struct {
	UserID uuid.UUID `json:"user_id"`
}
