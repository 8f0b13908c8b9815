package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

type NotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// MarkAsRead flips the read state of a single notification. Returns false
// only when the notification does not exist or belongs to another user;
// re-marking an already-read notification succeeds and keeps its original
// read timestamp.
func (s *NotificationStore) MarkAsRead(ctx context.Context, id string, userID uint) (bool, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_read": true, "read_at": gorm.Expr("COALESCE(read_at, ?)", now)})
	return res.RowsAffected > 0, res.Error
}

func (s *NotificationStore) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": now})
	return res.RowsAffected, res.Error
}

// List pages through a user's notifications newest-first. Page is 1-based.
func (s *NotificationStore) List(ctx context.Context, userID uint, page, pageSize int, unreadOnly bool) ([]models.Notification, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var out []models.Notification
	err := q.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&out).
		Error
	return out, err
}

func (s *NotificationStore) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).
		Error
	return count, err
}

// DeleteReadOlderThan removes only notifications that are both read and
// older than the cutoff.
func (s *NotificationStore) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
