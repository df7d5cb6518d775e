package service

import (
	"context"
	"errors"

	"nsplit-trader/internal/entity"
	"nsplit-trader/internal/simulator/dto"
	"nsplit-trader/internal/simulator/repository"
	"nsplit-trader/pkg/logger"

	"github.com/google/uuid"
)

// AccountService provisions and serves simulated accounts.
type AccountService interface {
	CreateAccount(ctx context.Context, req *dto.CreateAccountRequest) (*dto.AccountResponse, error)
	GetAccount(ctx context.Context, userID uuid.UUID) (*dto.AccountResponse, error)
	ResetAccount(ctx context.Context, userID uuid.UUID) (*dto.AccountResponse, error)
}

// NewAccountService creates a new account service. initialCash is the
// starting balance for new and reset accounts.
func NewAccountService(accountRepo repository.AccountRepository, initialCash float64, log *logger.Logger) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		initialCash: initialCash,
		logger:      log,
	}
}

type accountService struct {
	accountRepo repository.AccountRepository
	initialCash float64
	logger      *logger.Logger
}

// CreateAccount provisions an account for the user identity. Idempotent: an
// existing account is returned as-is.
func (s *accountService) CreateAccount(ctx context.Context, req *dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	existing, err := s.accountRepo.FindByUserID(ctx, req.UserID)
	if err == nil {
		return mapToAccountResponse(existing), nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	account := &entity.SimAccount{
		UserID: req.UserID,
		Cash:   s.initialCash,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Simulated account created",
		logger.StringField("user_id", req.UserID.String()),
		logger.Float64Field("cash", s.initialCash),
	)
	return mapToAccountResponse(account), nil
}

// GetAccount retrieves the account with its holdings.
func (s *accountService) GetAccount(ctx context.Context, userID uuid.UUID) (*dto.AccountResponse, error) {
	account, err := s.accountRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mapToAccountResponse(account), nil
}

// ResetAccount restores the initial cash balance and drops all holdings.
func (s *accountService) ResetAccount(ctx context.Context, userID uuid.UUID) (*dto.AccountResponse, error) {
	account, err := s.accountRepo.Reset(ctx, userID, s.initialCash)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Simulated account reset", logger.StringField("user_id", userID.String()))
	return mapToAccountResponse(account), nil
}

func mapToAccountResponse(account *entity.SimAccount) *dto.AccountResponse {
	holdings := make([]dto.HoldingResponse, 0, len(account.Holdings))
	for _, h := range account.Holdings {
		holdings = append(holdings, dto.HoldingResponse{
			StockCode:   h.StockCode,
			Quantity:    h.Quantity,
			AvgBuyPrice: h.AvgBuyPrice,
		})
	}

	return &dto.AccountResponse{
		ID:        account.ID,
		UserID:    account.UserID,
		Cash:      account.Cash,
		Holdings:  holdings,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}
