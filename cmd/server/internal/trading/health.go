package trading

import (
	"context"

	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

const (
	criticalMarginLevel = 20.0
	warningMarginLevel  = 50.0
)

// HealthNotifier is the notification surface the monitor raises through.
type HealthNotifier interface {
	NotifyMarginCall(ctx context.Context, userID uint, title, message string, d models.MarginData)
	NotifyLowBalance(ctx context.Context, userID uint, d models.BalanceData)
}

// HealthMonitor recomputes margin level and equity against fixed
// thresholds after every trade. It keeps no state, so alerts re-fire
// on every trade that still breaches a threshold.
type HealthMonitor struct {
	notifier            HealthNotifier
	lowBalanceThreshold float64
	logger              *zap.Logger
}

func NewHealthMonitor(notifier HealthNotifier, lowBalanceThreshold float64, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		notifier:            notifier,
		lowBalanceThreshold: lowBalanceThreshold,
		logger:              logger,
	}
}

// MarginLevel is equity over used margin as a percentage; with no margin
// in use the account is healthy by definition (100).
func MarginLevel(equity, usedMargin float64) float64 {
	if usedMargin <= 0 {
		return 100
	}
	return equity / usedMargin * 100
}

// Check runs the three independent threshold checks; any combination may
// fire from a single trade.
func (m *HealthMonitor) Check(ctx context.Context, userID uint, equity, usedMargin float64) {
	level := MarginLevel(equity, usedMargin)
	data := models.MarginData{MarginLevel: level, Equity: equity, UsedMargin: usedMargin}

	switch {
	case usedMargin > 0 && level < criticalMarginLevel:
		m.logger.Warn("Critical margin level", zap.Uint("user_id", userID), zap.Float64("margin_level", level))
		m.notifier.NotifyMarginCall(ctx, userID, "Critical Margin Call",
			"Your margin level is critically low. Positions may be liquidated imminently unless you add funds or close positions.",
			data)
	case usedMargin > 0 && level < warningMarginLevel:
		m.notifier.NotifyMarginCall(ctx, userID, "Margin Warning",
			"Your margin level is getting low. Consider reducing exposure or adding funds.",
			data)
	}

	if equity < m.lowBalanceThreshold {
		m.notifier.NotifyLowBalance(ctx, userID, models.BalanceData{
			Equity:    equity,
			Threshold: m.lowBalanceThreshold,
		})
	}
}
