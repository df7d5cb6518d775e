package service

import (
	"context"

	"nsplit-trader/internal/entity"
	"nsplit-trader/internal/simulator/dto"
	"nsplit-trader/internal/simulator/repository"
	"nsplit-trader/pkg/logger"
	"nsplit-trader/pkg/metrics"

	"github.com/google/uuid"
)

// OrderService executes simulated orders and serves order receipts.
type OrderService interface {
	PlaceBuyOrder(ctx context.Context, req *dto.OrderRequest) (*dto.OrderResponse, error)
	PlaceSellOrder(ctx context.Context, req *dto.OrderRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	GetAccountOrders(ctx context.Context, userID uuid.UUID) ([]dto.OrderResponse, error)
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo repository.OrderRepository, accountRepo repository.AccountRepository, log *logger.Logger) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		accountRepo: accountRepo,
		logger:      log,
	}
}

type orderService struct {
	orderRepo   repository.OrderRepository
	accountRepo repository.AccountRepository
	logger      *logger.Logger
}

// PlaceBuyOrder executes a buy instantly against the user's account.
func (s *orderService) PlaceBuyOrder(ctx context.Context, req *dto.OrderRequest) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.ExecuteBuy(ctx, req.UserID, req.StockCode, req.Price, req.Quantity)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	metrics.Orders.WithLabelValues(string(entity.OrderSideBuy)).Inc()
	s.logger.Info("Buy order executed",
		logger.StringField("stock_code", req.StockCode),
		logger.Float64Field("price", req.Price),
		logger.Field("quantity", req.Quantity),
	)
	return mapToOrderResponse(order), nil
}

// PlaceSellOrder executes a sell instantly against the user's account.
func (s *orderService) PlaceSellOrder(ctx context.Context, req *dto.OrderRequest) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.ExecuteSell(ctx, req.UserID, req.StockCode, req.Price, req.Quantity)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	metrics.Orders.WithLabelValues(string(entity.OrderSideSell)).Inc()
	s.logger.Info("Sell order executed",
		logger.StringField("stock_code", req.StockCode),
		logger.Float64Field("price", req.Price),
		logger.Field("quantity", req.Quantity),
	)
	return mapToOrderResponse(order), nil
}

// GetOrder retrieves one order receipt.
func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToOrderResponse(order), nil
}

// GetAccountOrders lists a user's orders, newest first.
func (s *orderService) GetAccountOrders(ctx context.Context, userID uuid.UUID) ([]dto.OrderResponse, error) {
	account, err := s.accountRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.FindByAccountID(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, *mapToOrderResponse(&orders[i]))
	}
	return responses, nil
}

func (s *orderService) countRejection(err error) {
	switch err {
	case repository.ErrInsufficientFunds:
		metrics.OrderRejections.WithLabelValues("insufficient_funds").Inc()
	case repository.ErrInsufficientInventory:
		metrics.OrderRejections.WithLabelValues("insufficient_inventory").Inc()
	}
}

func mapToOrderResponse(order *entity.SimOrder) *dto.OrderResponse {
	return &dto.OrderResponse{
		ID:         order.ID,
		AccountID:  order.AccountID,
		StockCode:  order.StockCode,
		OrderType:  string(order.OrderType),
		Price:      order.Price,
		Quantity:   order.Quantity,
		Status:     order.Status,
		ExecutedAt: order.ExecutedAt,
	}
}
