package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStatus is the lifecycle state of a trading session.
type SessionStatus string

const (
	SessionStatusReady     SessionStatus = "ready"
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session is one n-split strategy run for one stock and one user.
type Session struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_sessions_user_status" json:"user_id"`

	StockCode string `gorm:"size:10;not null" json:"stock_code"`
	StockName string `gorm:"size:100;not null" json:"stock_name"`

	// InitialBuyPrice nil means "use the first market price seen".
	InitialBuyPrice *float64 `json:"initial_buy_price"`
	AmountPerStep   float64  `gorm:"not null" json:"amount_per_step"`
	MaxSteps        int      `gorm:"not null" json:"max_steps"`
	SellTriggerPct  float64  `gorm:"not null" json:"sell_trigger_pct"`
	BuyTriggerPct   float64  `gorm:"not null" json:"buy_trigger_pct"`

	Status      SessionStatus `gorm:"size:20;not null;default:ready;index:idx_sessions_user_status;index:idx_sessions_status" json:"status"`
	CurrentStep int           `gorm:"not null;default:0" json:"current_step"`
	// FirstBuyPrice is resolved on the first evaluation after the session
	// starts running and never changes afterward.
	FirstBuyPrice *float64 `json:"first_buy_price"`

	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Positions []Position     `gorm:"foreignKey:SessionID" json:"positions,omitempty"`
	Events    []SessionEvent `gorm:"foreignKey:SessionID" json:"events,omitempty"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
