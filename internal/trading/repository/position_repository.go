package repository

import (
	"context"

	"nsplit-trader/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PositionRepository defines data operations for ladder positions.
type PositionRepository interface {
	Create(ctx context.Context, position *entity.Position) error
	Update(ctx context.Context, position *entity.Position) error
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]entity.Position, error)
	FindHoldings(ctx context.Context, sessionID uuid.UUID) ([]entity.Position, error)
}

// NewPositionRepository creates a new GORM-based position repository.
func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{db: db}
}

type positionRepository struct {
	db *gorm.DB
}

// Create persists a new position.
func (r *positionRepository) Create(ctx context.Context, position *entity.Position) error {
	return r.db.WithContext(ctx).Create(position).Error
}

// Update persists position changes.
func (r *positionRepository) Update(ctx context.Context, position *entity.Position) error {
	return r.db.WithContext(ctx).Save(position).Error
}

// FindBySessionID retrieves all positions of a session in ascending step
// order.
func (r *positionRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) ([]entity.Position, error) {
	var positions []entity.Position
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("step_number ASC, buy_time ASC").
		Find(&positions).Error
	if err != nil {
		return nil, err
	}
	return positions, nil
}

// FindHoldings retrieves the session's open positions in ascending step
// order. Sell evaluation depends on this ordering being deterministic.
func (r *positionRepository) FindHoldings(ctx context.Context, sessionID uuid.UUID) ([]entity.Position, error) {
	var positions []entity.Position
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND status = ?", sessionID, entity.PositionStatusHolding).
		Order("step_number ASC").
		Find(&positions).Error
	if err != nil {
		return nil, err
	}
	return positions, nil
}
