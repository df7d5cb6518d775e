package dto

import "time"

// PriceResponse is the current simulated price of a stock.
type PriceResponse struct {
	StockCode string    `json:"stock_code"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// SetPriceRequest manually overrides a stock's price.
type SetPriceRequest struct {
	Price float64 `json:"price"`
}

// PriceHistoryResponse is one row of the append-only price log.
type PriceHistoryResponse struct {
	StockCode string    `json:"stock_code"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
