package marketdata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

// AlertStore is the persistence surface the evaluator needs.
type AlertStore interface {
	ActiveForSymbol(ctx context.Context, symbol string) ([]models.PriceAlert, error)
	MarkTriggered(ctx context.Context, id uint, at time.Time) error
}

// AlertNotifier raises the user-facing price alert.
type AlertNotifier interface {
	NotifyPriceAlert(ctx context.Context, userID uint, data models.PriceAlertData)
}

// AlertEvaluator checks every refreshed quote against the active price
// alerts for its symbol. A crossing retires the alert before notifying so
// it cannot re-fire.
type AlertEvaluator struct {
	store    AlertStore
	notifier AlertNotifier
	logger   *zap.Logger
}

func NewAlertEvaluator(store AlertStore, notifier AlertNotifier, logger *zap.Logger) *AlertEvaluator {
	return &AlertEvaluator{store: store, notifier: notifier, logger: logger}
}

func (e *AlertEvaluator) Evaluate(ctx context.Context, symbol string, price float64) {
	alerts, err := e.store.ActiveForSymbol(ctx, symbol)
	if err != nil {
		e.logger.Error("Price alert lookup failed", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	for _, a := range alerts {
		if !a.Triggered(price) {
			continue
		}

		if err := e.store.MarkTriggered(ctx, a.ID, time.Now().UTC()); err != nil {
			e.logger.Error("Failed to retire price alert", zap.Uint("alert_id", a.ID), zap.Error(err))
			continue
		}

		e.notifier.NotifyPriceAlert(ctx, a.UserID, models.PriceAlertData{
			Symbol:       a.Symbol,
			TargetPrice:  a.TargetPrice,
			CurrentPrice: price,
			Condition:    string(a.Condition),
		})
	}
}
