package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateAccountRequest provisions a simulated account for a user identity.
// Creation is idempotent; an existing account is returned unchanged.
type CreateAccountRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// HoldingResponse is one stock position inside an account.
type HoldingResponse struct {
	StockCode   string  `json:"stock_code"`
	Quantity    int64   `json:"quantity"`
	AvgBuyPrice float64 `json:"avg_buy_price"`
}

// AccountResponse is the state of a simulated account.
type AccountResponse struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Cash      float64           `json:"cash"`
	Holdings  []HoldingResponse `json:"holdings"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}
