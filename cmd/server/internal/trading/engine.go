package trading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Wire types mirror the trading-engine process's JSON surface.

type OrderRequest struct {
	Symbol     string   `json:"symbol"`
	Type       string   `json:"type"`
	Side       string   `json:"side"`
	Quantity   float64  `json:"quantity"`
	Price      *float64 `json:"price,omitempty"`
	StopPrice  *float64 `json:"stop_price,omitempty"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
}

type Order struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Type           string    `json:"type"`
	Side           string    `json:"side"`
	Quantity       float64   `json:"quantity"`
	Price          *float64  `json:"price,omitempty"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	FilledQuantity float64   `json:"filled_quantity"`
	FilledPrice    *float64  `json:"filled_price,omitempty"`
}

type Position struct {
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	EntryPrice    float64   `json:"entry_price"`
	CurrentPrice  float64   `json:"current_price"`
	Side          string    `json:"side"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	Timestamp     time.Time `json:"timestamp"`
}

type Trade struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	Timestamp   time.Time `json:"timestamp"`
	Commission  float64   `json:"commission"`
	RealizedPnL float64   `json:"realized_pnl"`
}

type Portfolio struct {
	Balance     float64 `json:"balance"`
	Equity      float64 `json:"equity"`
	UsedMargin  float64 `json:"used_margin"`
	MarginLevel float64 `json:"margin_level"`
	Leverage    float64 `json:"leverage"`
}

// EngineClient talks to the order-matching/portfolio engine process over
// synchronous JSON HTTP. The engine is per-user scoped by header.
type EngineClient struct {
	baseURL string
	client  *http.Client
}

func NewEngineClient(baseURL string, client *http.Client) *EngineClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &EngineClient{baseURL: baseURL, client: client}
}

func (c *EngineClient) PlaceOrder(ctx context.Context, userID uint, req OrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", userID, req, &order); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	return &order, nil
}

func (c *EngineClient) GetPortfolio(ctx context.Context, userID uint) (*Portfolio, error) {
	var p Portfolio
	if err := c.do(ctx, http.MethodGet, "/portfolio", userID, nil, &p); err != nil {
		return nil, fmt.Errorf("get portfolio: %w", err)
	}
	return &p, nil
}

func (c *EngineClient) GetPositions(ctx context.Context, userID uint) ([]Position, error) {
	var out []Position
	if err := c.do(ctx, http.MethodGet, "/positions", userID, nil, &out); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	return out, nil
}

func (c *EngineClient) GetTrades(ctx context.Context, userID uint) ([]Trade, error) {
	var out []Trade
	if err := c.do(ctx, http.MethodGet, "/trades", userID, nil, &out); err != nil {
		return nil, fmt.Errorf("get trades: %w", err)
	}
	return out, nil
}

func (c *EngineClient) do(ctx context.Context, method, path string, userID uint, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("engine returned %d: %s", resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
