package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SimAccount is one simulated brokerage account per external user identity.
// Cash never goes below zero.
type SimAccount struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Cash      float64   `gorm:"not null" json:"cash"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Holdings []SimHolding `gorm:"foreignKey:AccountID" json:"holdings,omitempty"`
}

func (SimAccount) TableName() string {
	return "sim_accounts"
}

func (a *SimAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
