package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventType classifies session audit records.
type EventType string

const (
	EventTypeBuy      EventType = "buy"
	EventTypeSell     EventType = "sell"
	EventTypeStart    EventType = "start"
	EventTypePause    EventType = "pause"
	EventTypeResume   EventType = "resume"
	EventTypeComplete EventType = "complete"
	EventTypeError    EventType = "error"
)

// SessionEvent is an append-only audit record. Events are never mutated or
// deleted except through cascading session deletion.
type SessionEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`

	EventType  EventType  `gorm:"size:20;not null" json:"event_type"`
	PositionID *uuid.UUID `gorm:"type:uuid" json:"position_id"`
	Price      *float64   `json:"price"`
	Quantity   *int64     `json:"quantity"`
	Message    string     `gorm:"type:text" json:"message"`
	// Metadata carries a snapshot of the simulator order receipt for
	// buy/sell events.
	Metadata datatypes.JSON `json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (SessionEvent) TableName() string {
	return "session_events"
}

func (e *SessionEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
