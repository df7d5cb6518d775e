package repository

import (
	"context"
	"errors"

	"nsplit-trader/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository is the execution ledger. ExecuteBuy and ExecuteSell apply
// the cash/holding mutation and create the order receipt in one
// transaction; either everything commits or nothing does.
type OrderRepository interface {
	ExecuteBuy(ctx context.Context, userID uuid.UUID, stockCode string, price float64, quantity int64) (*entity.SimOrder, error)
	ExecuteSell(ctx context.Context, userID uuid.UUID, stockCode string, price float64, quantity int64) (*entity.SimOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SimOrder, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]entity.SimOrder, error)
}

// NewOrderRepository creates a new GORM-based order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

type orderRepository struct {
	db *gorm.DB
}

// ExecuteBuy debits cash and folds the fill into the holding at incremental
// volume-weighted average cost. Rejected with ErrInsufficientFunds when cash
// cannot cover price*quantity, leaving the account untouched.
func (r *orderRepository) ExecuteBuy(ctx context.Context, userID uuid.UUID, stockCode string, price float64, quantity int64) (*entity.SimOrder, error) {
	var order *entity.SimOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockAccount(tx, userID)
		if err != nil {
			return err
		}

		totalCost := price * float64(quantity)
		if account.Cash < totalCost {
			return ErrInsufficientFunds
		}
		account.Cash -= totalCost
		if err := tx.Save(account).Error; err != nil {
			return err
		}

		var holding entity.SimHolding
		err = tx.Where("account_id = ? AND stock_code = ?", account.ID, stockCode).First(&holding).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			holding = entity.SimHolding{
				AccountID:   account.ID,
				StockCode:   stockCode,
				Quantity:    quantity,
				AvgBuyPrice: price,
			}
			if err := tx.Create(&holding).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			holding.ApplyBuy(price, quantity)
			if err := tx.Save(&holding).Error; err != nil {
				return err
			}
		}

		order = &entity.SimOrder{
			AccountID: account.ID,
			StockCode: stockCode,
			OrderType: entity.OrderSideBuy,
			Price:     price,
			Quantity:  quantity,
			Status:    entity.OrderStatusFilled,
		}
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ExecuteSell credits cash and decrements the holding, deleting it when the
// quantity reaches exactly zero. Rejected with ErrInsufficientInventory when
// the holding is absent or short.
func (r *orderRepository) ExecuteSell(ctx context.Context, userID uuid.UUID, stockCode string, price float64, quantity int64) (*entity.SimOrder, error) {
	var order *entity.SimOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockAccount(tx, userID)
		if err != nil {
			return err
		}

		var holding entity.SimHolding
		err = tx.Where("account_id = ? AND stock_code = ?", account.ID, stockCode).First(&holding).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInsufficientInventory
		}
		if err != nil {
			return err
		}
		if holding.Quantity < quantity {
			return ErrInsufficientInventory
		}

		account.Cash += price * float64(quantity)
		if err := tx.Save(account).Error; err != nil {
			return err
		}

		holding.ApplySell(quantity)
		if holding.Quantity == 0 {
			if err := tx.Delete(&holding).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Save(&holding).Error; err != nil {
				return err
			}
		}

		order = &entity.SimOrder{
			AccountID: account.ID,
			StockCode: stockCode,
			OrderType: entity.OrderSideSell,
			Price:     price,
			Quantity:  quantity,
			Status:    entity.OrderStatusFilled,
		}
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID retrieves a single order receipt.
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SimOrder, error) {
	var order entity.SimOrder
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByAccountID retrieves an account's orders, newest first.
func (r *orderRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]entity.SimOrder, error) {
	var orders []entity.SimOrder
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("executed_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// lockAccount reads the account row under FOR UPDATE so concurrent orders
// against the same account serialize.
func lockAccount(tx *gorm.DB, userID uuid.UUID) (*entity.SimAccount, error) {
	var account entity.SimAccount
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
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
