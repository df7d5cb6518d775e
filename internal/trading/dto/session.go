package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CreateSessionRequest creates a new trading session in the ready state.
type CreateSessionRequest struct {
	StockCode       string   `json:"stock_code"`
	StockName       string   `json:"stock_name"`
	InitialBuyPrice *float64 `json:"initial_buy_price"`
	AmountPerStep   float64  `json:"amount_per_step"`
	MaxSteps        int      `json:"max_steps"`
	SellTriggerPct  float64  `json:"sell_trigger_pct"`
	BuyTriggerPct   float64  `json:"buy_trigger_pct"`
}

// UpdateSessionRequest updates strategy settings; only permitted while the
// session is still ready. Nil fields are left unchanged.
type UpdateSessionRequest struct {
	StockCode       *string  `json:"stock_code"`
	StockName       *string  `json:"stock_name"`
	InitialBuyPrice *float64 `json:"initial_buy_price"`
	AmountPerStep   *float64 `json:"amount_per_step"`
	MaxSteps        *int     `json:"max_steps"`
	SellTriggerPct  *float64 `json:"sell_trigger_pct"`
	BuyTriggerPct   *float64 `json:"buy_trigger_pct"`
}

// SessionResponse is the public view of a session.
type SessionResponse struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	StockCode       string     `json:"stock_code"`
	StockName       string     `json:"stock_name"`
	InitialBuyPrice *float64   `json:"initial_buy_price"`
	AmountPerStep   float64    `json:"amount_per_step"`
	MaxSteps        int        `json:"max_steps"`
	SellTriggerPct  float64    `json:"sell_trigger_pct"`
	BuyTriggerPct   float64    `json:"buy_trigger_pct"`
	Status          string     `json:"status"`
	CurrentStep     int        `json:"current_step"`
	FirstBuyPrice   *float64   `json:"first_buy_price"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}

// SessionDetailResponse is a session together with its positions.
type SessionDetailResponse struct {
	SessionResponse
	Positions []PositionResponse `json:"positions"`
}

// PositionResponse is one ladder rung of a session.
type PositionResponse struct {
	ID              uuid.UUID  `json:"id"`
	SessionID       uuid.UUID  `json:"session_id"`
	StepNumber      int        `json:"step_number"`
	BuyPrice        float64    `json:"buy_price"`
	Quantity        int64      `json:"quantity"`
	BuyTime         time.Time  `json:"buy_time"`
	SellTargetPrice float64    `json:"sell_target_price"`
	SellPrice       *float64   `json:"sell_price"`
	SellTime        *time.Time `json:"sell_time"`
	RealizedProfit  *float64   `json:"realized_profit"`
	Status          string     `json:"status"`
}

// SessionEventResponse is one entry of a session's audit timeline.
type SessionEventResponse struct {
	ID         uuid.UUID       `json:"id"`
	SessionID  uuid.UUID       `json:"session_id"`
	EventType  string          `json:"event_type"`
	PositionID *uuid.UUID      `json:"position_id"`
	Price      *float64        `json:"price"`
	Quantity   *int64          `json:"quantity"`
	Message    string          `json:"message"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}
