package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

// UserStore resolves notification recipients and their preferences.
type UserStore interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetPreference(ctx context.Context, userID uint, t models.NotificationType) (models.NotificationPreference, error)
}

// Store persists notification records.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	MarkAsRead(ctx context.Context, id string, userID uint) (bool, error)
	MarkAllAsRead(ctx context.Context, userID uint) (int64, error)
	List(ctx context.Context, userID uint, page, pageSize int, unreadOnly bool) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Broadcaster delivers the in-app channel.
type Broadcaster interface {
	BroadcastNotification(userID uint, data any)
}

// Service owns the notification lifecycle: created -> sent -> (read |
// unread indefinitely). "sent" is reached synchronously as part of
// creation; channel failures are logged, never fatal.
type Service struct {
	users       UserStore
	store       Store
	broadcaster Broadcaster
	mailer      Mailer
	logger      *zap.Logger
	cleanupDays int
}

func NewService(users UserStore, store Store, broadcaster Broadcaster, mailer Mailer, cleanupDays int, logger *zap.Logger) *Service {
	return &Service{
		users:       users,
		store:       store,
		broadcaster: broadcaster,
		mailer:      mailer,
		cleanupDays: cleanupDays,
		logger:      logger,
	}
}

// Create builds and persists a notification, then dispatches it across
// every resolved channel. Returns (nil, nil) when the user does not exist.
// Explicit channels bypass the preference lookup.
func (s *Service) Create(
	ctx context.Context,
	userID uint,
	t models.NotificationType,
	title, message string,
	data any,
	channels models.ChannelList,
) (*models.Notification, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", userID, err)
	}
	if user == nil {
		s.logger.Warn("Notification for unknown user dropped", zap.Uint("user_id", userID), zap.String("type", string(t)))
		return nil, nil
	}

	if len(channels) == 0 {
		channels, err = s.resolveChannels(ctx, userID, t)
		if err != nil {
			return nil, err
		}
	}

	var payload json.RawMessage
	if data != nil {
		payload, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode notification data: %w", err)
		}
	}

	now := time.Now().UTC()
	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      t,
		Title:     title,
		Message:   message,
		Data:      payload,
		Channels:  channels,
		SentAt:    &now,
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	s.dispatch(ctx, n, user)
	return n, nil
}

// resolveChannels builds the channel set from the per-type preferences,
// forcing in_app when everything is disabled so the set is never empty.
func (s *Service) resolveChannels(ctx context.Context, userID uint, t models.NotificationType) (models.ChannelList, error) {
	pref, err := s.users.GetPreference(ctx, userID, t)
	if err != nil {
		return nil, fmt.Errorf("lookup preferences: %w", err)
	}

	var channels models.ChannelList
	if pref.InAppEnabled {
		channels = append(channels, models.ChannelInApp)
	}
	if pref.EmailEnabled {
		channels = append(channels, models.ChannelEmail)
	}
	if len(channels) == 0 {
		channels = models.ChannelList{models.ChannelInApp}
	}
	return channels, nil
}

// dispatch attempts delivery on every resolved channel. In-app completes
// inline (it is a non-blocking buffer write); email runs fire-and-forget
// so a slow send never stalls the caller. Failure of one channel never
// blocks another.
func (s *Service) dispatch(ctx context.Context, n *models.Notification, user *models.User) {
	for _, ch := range n.Channels {
		switch ch {
		case models.ChannelInApp:
			s.broadcaster.BroadcastNotification(n.UserID, map[string]any{
				"id":        n.ID,
				"type":      n.Type,
				"title":     n.Title,
				"message":   n.Message,
				"data":      n.Data,
				"timestamp": n.CreatedAt,
			})
		case models.ChannelEmail:
			go s.sendEmail(n, user)
		case models.ChannelSMS:
			// Stub: in the channel enum for forward compatibility only
			s.logger.Info("SMS channel not implemented", zap.String("notification_id", n.ID))
		case models.ChannelPush:
			// Stub, same as SMS
			s.logger.Info("Push channel not implemented", zap.String("notification_id", n.ID))
		}
	}
}

func (s *Service) sendEmail(n *models.Notification, user *models.User) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	subject, html := emailContent(n)
	if err := s.mailer.Send(ctx, user.Email, subject, html); err != nil {
		s.logger.Error("Email delivery failed",
			zap.String("notification_id", n.ID),
			zap.Uint("user_id", n.UserID),
			zap.Error(err))
	}
}

// Typed event entry points. Each shapes the title/message for its event
// and carries the matching payload variant.

func (s *Service) NotifyTradeExecution(ctx context.Context, userID uint, d models.TradeData) {
	title := "Trade Executed"
	message := fmt.Sprintf("Your %s order for %.8g %s at $%.2f has been executed.",
		d.Side, d.Quantity, d.Symbol, d.Price)
	if _, err := s.Create(ctx, userID, models.NotificationTradeConfirmation, title, message, d, nil); err != nil {
		s.logger.Error("Trade confirmation failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (s *Service) NotifyMarginCall(ctx context.Context, userID uint, title, message string, d models.MarginData) {
	if _, err := s.Create(ctx, userID, models.NotificationMarginCall, title, message, d, nil); err != nil {
		s.logger.Error("Margin call notification failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (s *Service) NotifyLowBalance(ctx context.Context, userID uint, d models.BalanceData) {
	title := "Low Balance Alert"
	message := fmt.Sprintf("Your account equity has dropped to $%.2f.", d.Equity)
	if _, err := s.Create(ctx, userID, models.NotificationBalanceAlert, title, message, d, nil); err != nil {
		s.logger.Error("Balance alert failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (s *Service) NotifyPriceAlert(ctx context.Context, userID uint, d models.PriceAlertData) {
	title := fmt.Sprintf("Price Alert: %s", d.Symbol)
	message := fmt.Sprintf("%s is now trading at $%.2f, %s your target of $%.2f.",
		d.Symbol, d.CurrentPrice, d.Condition, d.TargetPrice)
	if _, err := s.Create(ctx, userID, models.NotificationPriceAlert, title, message, d, nil); err != nil {
		s.logger.Error("Price alert notification failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// Read-state and query operations.

func (s *Service) MarkAsRead(ctx context.Context, id string, userID uint) (bool, error) {
	return s.store.MarkAsRead(ctx, id, userID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	return s.store.MarkAllAsRead(ctx, userID)
}

func (s *Service) List(ctx context.Context, userID uint, page, pageSize int, unreadOnly bool) ([]models.Notification, error) {
	return s.store.List(ctx, userID, page, pageSize, unreadOnly)
}

func (s *Service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.store.UnreadCount(ctx, userID)
}

// CleanupOld deletes notifications that are both read and older than the
// configured age. Wired into the daily cleanup slot.
func (s *Service) CleanupOld(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.cleanupDays)
	deleted, err := s.store.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Notification cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("Cleaned up old notifications", zap.Int64("rows", deleted))
}
