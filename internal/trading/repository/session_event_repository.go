package repository

import (
	"context"

	"nsplit-trader/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionEventRepository appends and reads the session audit trail. Events
// are append-only; there is deliberately no update or single-delete.
type SessionEventRepository interface {
	Create(ctx context.Context, event *entity.SessionEvent) error
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]entity.SessionEvent, error)
}

// NewSessionEventRepository creates a new GORM-based event repository.
func NewSessionEventRepository(db *gorm.DB) SessionEventRepository {
	return &sessionEventRepository{db: db}
}

type sessionEventRepository struct {
	db *gorm.DB
}

// Create appends an event.
func (r *sessionEventRepository) Create(ctx context.Context, event *entity.SessionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FindBySessionID retrieves a session's events, newest first.
func (r *sessionEventRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]entity.SessionEvent, error) {
	var events []entity.SessionEvent
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
