package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PositionStatus is the state of one ladder rung.
type PositionStatus string

const (
	PositionStatusHolding PositionStatus = "holding"
	PositionStatusSold    PositionStatus = "sold"
)

// Position is one open or closed ladder rung within a session. At most one
// holding position may exist per (session, step); a sold position is
// immutable.
type Position struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_positions_session_status;index:idx_positions_session_step_status" json:"session_id"`

	StepNumber int       `gorm:"not null;index:idx_positions_session_step_status" json:"step_number"`
	BuyPrice   float64   `gorm:"not null" json:"buy_price"`
	Quantity   int64     `gorm:"not null" json:"quantity"`
	BuyTime    time.Time `gorm:"not null" json:"buy_time"`

	SellTargetPrice float64    `gorm:"not null" json:"sell_target_price"`
	SellPrice       *float64   `json:"sell_price"`
	SellTime        *time.Time `json:"sell_time"`
	RealizedProfit  *float64   `json:"realized_profit"`

	Status PositionStatus `gorm:"size:20;not null;default:holding;index:idx_positions_session_status;index:idx_positions_session_step_status" json:"status"`
}

func (Position) TableName() string {
	return "positions"
}

func (p *Position) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
