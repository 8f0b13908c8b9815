package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// GetUser returns (nil, nil) when the user does not exist; callers treat
// absence as a recoverable condition, not an error.
func (s *UserStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetPreference resolves the per-type channel preference, falling back to
// the defaults when the user never saved one.
func (s *UserStore) GetPreference(ctx context.Context, userID uint, t models.NotificationType) (models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, t).
		First(&pref).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultPreference(userID, t), nil
	}
	if err != nil {
		return models.NotificationPreference{}, err
	}
	return pref, nil
}
