package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

type AlertStore struct {
	db *gorm.DB
}

func NewAlertStore(db *gorm.DB) *AlertStore {
	return &AlertStore{db: db}
}

func (s *AlertStore) Create(ctx context.Context, a *models.PriceAlert) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *AlertStore) ListByUser(ctx context.Context, userID uint) ([]models.PriceAlert, error) {
	var out []models.PriceAlert
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).
		Error
	return out, err
}

// Deactivate disables an alert without deleting it. Returns false when the
// alert does not exist or belongs to another user.
func (s *AlertStore) Deactivate(ctx context.Context, id, userID uint) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.PriceAlert{}).
		Where("id = ? AND user_id = ? AND active = ?", id, userID, true).
		Update("active", false)
	return res.RowsAffected > 0, res.Error
}

// ActiveForSymbol returns the alerts the refresh cycle must evaluate.
func (s *AlertStore) ActiveForSymbol(ctx context.Context, symbol string) ([]models.PriceAlert, error) {
	var out []models.PriceAlert
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND active = ?", symbol, true).
		Find(&out).
		Error
	return out, err
}

// MarkTriggered records the crossing and retires the alert so it never
// re-fires.
func (s *AlertStore) MarkTriggered(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.PriceAlert{}).
		Where("id = ?", id).
		Updates(map[string]any{"active": false, "triggered_at": at}).
		Error
}
