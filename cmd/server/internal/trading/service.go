package trading

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

// Engine is the trading-engine collaborator surface.
type Engine interface {
	PlaceOrder(ctx context.Context, userID uint, req OrderRequest) (*Order, error)
	GetPortfolio(ctx context.Context, userID uint) (*Portfolio, error)
	GetPositions(ctx context.Context, userID uint) ([]Position, error)
	GetTrades(ctx context.Context, userID uint) ([]Trade, error)
}

// TradeNotifier raises the trade confirmation.
type TradeNotifier interface {
	NotifyTradeExecution(ctx context.Context, userID uint, d models.TradeData)
}

// TradeBroadcaster pushes live order/trade events to the user's topics.
type TradeBroadcaster interface {
	BroadcastOrderUpdate(userID uint, data any)
	BroadcastTradeUpdate(userID uint, data any)
}

// Service orchestrates a trade: engine call, confirmation notification,
// live broadcast, then the portfolio health check. The engine stays the
// source of truth for matching and margin math.
type Service struct {
	engine      Engine
	notifier    TradeNotifier
	broadcaster TradeBroadcaster
	health      *HealthMonitor
	logger      *zap.Logger
}

func NewService(engine Engine, notifier TradeNotifier, broadcaster TradeBroadcaster, health *HealthMonitor, logger *zap.Logger) *Service {
	return &Service{
		engine:      engine,
		notifier:    notifier,
		broadcaster: broadcaster,
		health:      health,
		logger:      logger,
	}
}

// Execute places the order and runs the post-trade pipeline. Notification
// or broadcast failures never fail the order itself.
func (s *Service) Execute(ctx context.Context, userID uint, req OrderRequest) (*Order, error) {
	order, err := s.engine.PlaceOrder(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	executed := order.Status == "filled"
	if executed {
		fillPrice := 0.0
		if order.FilledPrice != nil {
			fillPrice = *order.FilledPrice
		}

		s.notifier.NotifyTradeExecution(ctx, userID, models.TradeData{
			OrderID:  order.ID,
			Symbol:   order.Symbol,
			Side:     order.Side,
			Quantity: order.FilledQuantity,
			Price:    fillPrice,
			Total:    order.FilledQuantity * fillPrice,
		})
	}

	s.broadcaster.BroadcastOrderUpdate(userID, map[string]any{
		"userId":    userID,
		"type":      "order_placed",
		"order":     order,
		"timestamp": time.Now().UTC(),
	})
	if executed {
		s.broadcaster.BroadcastTradeUpdate(userID, map[string]any{
			"userId":    userID,
			"orderId":   order.ID,
			"symbol":    order.Symbol,
			"side":      order.Side,
			"quantity":  order.FilledQuantity,
			"timestamp": time.Now().UTC(),
		})
	}

	// Health check uses the engine's post-trade numbers
	portfolio, err := s.engine.GetPortfolio(ctx, userID)
	if err != nil {
		s.logger.Error("Post-trade portfolio fetch failed", zap.Uint("user_id", userID), zap.Error(err))
		return order, nil
	}
	s.health.Check(ctx, userID, portfolio.Equity, portfolio.UsedMargin)

	return order, nil
}

// Portfolio proxies the engine's portfolio summary.
func (s *Service) Portfolio(ctx context.Context, userID uint) (*Portfolio, error) {
	p, err := s.engine.GetPortfolio(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("portfolio for user %d: %w", userID, err)
	}
	return p, nil
}

// Positions proxies the engine's open positions.
func (s *Service) Positions(ctx context.Context, userID uint) ([]Position, error) {
	return s.engine.GetPositions(ctx, userID)
}

// Trades proxies the engine's trade history.
func (s *Service) Trades(ctx context.Context, userID uint) ([]Trade, error) {
	return s.engine.GetTrades(ctx, userID)
}
