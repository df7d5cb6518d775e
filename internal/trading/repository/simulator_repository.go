package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nsplit-trader/internal/trading/config"
	"nsplit-trader/internal/trading/dto"
	"nsplit-trader/pkg/common"
	"nsplit-trader/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// SimulatorRepository is the client of the simulated exchange. Every call
// retries transient failures with exponential backoff up to the configured
// attempt count; a failed attempt is treated as non-committed, so reissuing
// is safe for the operations exposed here.
type SimulatorRepository interface {
	GetPrice(ctx context.Context, stockCode string) (float64, error)
	PlaceBuyOrder(ctx context.Context, userID uuid.UUID, stockCode string, price float64, quantity int64) (*dto.SimOrderReceipt, error)
	PlaceSellOrder(ctx context.Context, userID uuid.UUID, stockCode string, price float64, quantity int64) (*dto.SimOrderReceipt, error)
	EnsureAccount(ctx context.Context, userID uuid.UUID) error
}

// NewSimulatorRepository creates a new HTTP-based simulator client.
func NewSimulatorRepository(cfg *config.Config, log *logger.Logger) (SimulatorRepository, error) {
	timeout := 5 * time.Second
	if cfg.Simulator.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Simulator.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid simulator timeout: %w", err)
		}
		timeout = parsed
	}

	maxRetries := cfg.Simulator.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var limiter *rate.Limiter
	if cfg.Simulator.MaxRequestPerMinute > 0 {
		secondsPerRequest := time.Minute / time.Duration(cfg.Simulator.MaxRequestPerMinute)
		limiter = rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	} else {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	return &simulatorRepository{
		baseURL:    cfg.Simulator.BaseURL,
		apiKey:     cfg.Simulator.APIKey,
		maxRetries: maxRetries,
		log:        log,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		requestLimiter: limiter,
	}, nil
}

type simulatorRepository struct {
	baseURL        string
	apiKey         string
	maxRetries     int
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// GetPrice fetches the current simulated price of a stock.
func (r *simulatorRepository) GetPrice(ctx context.Context, stockCode string) (float64, error) {
	url := fmt.Sprintf("%s/api/price/%s", r.baseURL, stockCode)
	body, err := r.sendRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	var response dto.SimPriceResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return 0, fmt.Errorf("failed to decode price response: %w", err)
	}
	return response.Price, nil
}

// PlaceBuyOrder executes a buy on the simulated exchange.
func (r *simulatorRepository) PlaceBuyOrder(ctx context.Context, userID uuid.UUID, stockCode string, price float64, quantity int64) (*dto.SimOrderReceipt, error) {
	return r.placeOrder(ctx, "buy", userID, stockCode, price, quantity)
}

// PlaceSellOrder executes a sell on the simulated exchange.
func (r *simulatorRepository) PlaceSellOrder(ctx context.Context, userID uuid.UUID, stockCode string, price float64, quantity int64) (*dto.SimOrderReceipt, error) {
	return r.placeOrder(ctx, "sell", userID, stockCode, price, quantity)
}

// EnsureAccount provisions the user's simulated account; the endpoint is
// idempotent, so calling it for an existing account is a no-op.
func (r *simulatorRepository) EnsureAccount(ctx context.Context, userID uuid.UUID) error {
	payload, err := json.Marshal(dto.SimCreateAccountRequest{UserID: userID})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/account/create", r.baseURL)
	_, err = r.sendRequest(ctx, http.MethodPost, url, payload)
	return err
}

func (r *simulatorRepository) placeOrder(ctx context.Context, side string, userID uuid.UUID, stockCode string, price float64, quantity int64) (*dto.SimOrderReceipt, error) {
	payload, err := json.Marshal(dto.SimOrderRequest{
		UserID:    userID,
		StockCode: stockCode,
		Price:     price,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/order/%s", r.baseURL, side)
	body, err := r.sendRequest(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, err
	}

	var receipt dto.SimOrderReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return nil, fmt.Errorf("failed to decode order receipt: %w", err)
	}
	return &receipt, nil
}

// sendRequest performs one logical request with retry. Transport errors and
// non-2xx statuses are retried with exponential backoff; after the last
// attempt the error wraps ErrSimulatorUnavailable.
func (r *simulatorRepository) sendRequest(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := r.requestLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := r.doRequest(ctx, method, url, payload)
		if err == nil {
			return body, nil
		}
		if !retryable {
			// Domain rejections (insufficient funds/inventory, unknown
			// account) will not succeed on a retry.
			return nil, err
		}
		lastErr = err

		r.log.Warn("Simulator request failed",
			logger.ErrorField(err),
			logger.StringField("url", url),
			logger.IntField("attempt", attempt+1),
		)
	}

	return nil, fmt.Errorf("%w: %d attempts to %s: %v", ErrSimulatorUnavailable, r.maxRetries, url, lastErr)
}

func (r *simulatorRepository) doRequest(ctx context.Context, method, url string, payload []byte) (body []byte, retryable bool, err error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set(common.HeaderSimulatorAPIKey, r.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return body, false, nil
	}

	err = fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	permanent := resp.StatusCode >= 400 && resp.StatusCode < 500 &&
		resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests
	return nil, !permanent, err
}
