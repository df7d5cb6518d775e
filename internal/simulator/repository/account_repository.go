package repository

import (
	"context"
	"errors"

	"nsplit-trader/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepository defines data operations for simulated accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *entity.SimAccount) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.SimAccount, error)
	Reset(ctx context.Context, userID uuid.UUID, initialCash float64) (*entity.SimAccount, error)
}

// NewAccountRepository creates a new GORM-based account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

type accountRepository struct {
	db *gorm.DB
}

// Create persists a new account.
func (r *accountRepository) Create(ctx context.Context, account *entity.SimAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// FindByUserID retrieves an account with its holdings by the external user id.
func (r *accountRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.SimAccount, error) {
	var account entity.SimAccount
	err := r.db.WithContext(ctx).
		Preload("Holdings").
		Where("user_id = ?", userID).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Reset restores the account cash to the initial amount and drops every
// holding, atomically.
func (r *accountRepository) Reset(ctx context.Context, userID uuid.UUID, initialCash float64) (*entity.SimAccount, error) {
	var account entity.SimAccount
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		account.Cash = initialCash
		if err := tx.Save(&account).Error; err != nil {
			return err
		}

		return tx.Where("account_id = ?", account.ID).Delete(&entity.SimHolding{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}
