package models

import "time"

// User carries only what the notification core needs: identity and an
// email address for the email channel. Account management lives elsewhere.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:255"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationPreference is the per-user, per-type channel opt-in pair.
// Owned by the user-profile collaborator; read-only input to channel
// resolution. A user with no row for a type gets the defaults below.
type NotificationPreference struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	UserID       uint             `json:"userId" gorm:"uniqueIndex:idx_pref_user_type;not null"`
	Type         NotificationType `json:"type" gorm:"size:32;uniqueIndex:idx_pref_user_type;not null"`
	InAppEnabled bool             `json:"inAppEnabled" gorm:"default:true"`
	EmailEnabled bool             `json:"emailEnabled" gorm:"default:true"`
}

// DefaultPreference applies when a user has never saved preferences for a
// notification type.
func DefaultPreference(userID uint, t NotificationType) NotificationPreference {
	return NotificationPreference{UserID: userID, Type: t, InAppEnabled: true, EmailEnabled: true}
}
