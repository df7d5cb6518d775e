package repository

import (
	"context"
	"errors"

	"nsplit-trader/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepository defines data operations for trading sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	FindByIDWithPositions(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	FindByUser(ctx context.Context, userID uuid.UUID, status entity.SessionStatus) ([]entity.Session, error)
	FindByStatus(ctx context.Context, status entity.SessionStatus) ([]entity.Session, error)
	Update(ctx context.Context, session *entity.Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewSessionRepository creates a new GORM-based session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

type sessionRepository struct {
	db *gorm.DB
}

// Create persists a new session.
func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindByID retrieves a session by its ID.
func (r *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var session entity.Session
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByIDWithPositions retrieves a session and its positions, positions in
// ascending step order.
func (r *sessionRepository) FindByIDWithPositions(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var session entity.Session
	err := r.db.WithContext(ctx).
		Preload("Positions", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC, buy_time ASC")
		}).
		First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByUser retrieves a user's sessions, newest first, optionally filtered
// by status (empty status means all).
func (r *sessionRepository) FindByUser(ctx context.Context, userID uuid.UUID, status entity.SessionStatus) ([]entity.Session, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var sessions []entity.Session
	if err := q.Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// FindByStatus retrieves every session in the given status.
func (r *sessionRepository) FindByStatus(ctx context.Context, status entity.SessionStatus) ([]entity.Session, error) {
	var sessions []entity.Session
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Update persists session changes.
func (r *sessionRepository) Update(ctx context.Context, session *entity.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// Delete removes a session and, in the same transaction, its positions and
// events. Deleting a session owns the cascade explicitly rather than
// leaning on database-side foreign key actions.
func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&entity.Position{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&entity.SessionEvent{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.Session{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}
