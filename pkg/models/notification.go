package models

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationTradeConfirmation NotificationType = "trade_confirmation"
	NotificationBalanceAlert      NotificationType = "balance_alert"
	NotificationPriceAlert        NotificationType = "price_alert"
	NotificationMarginCall        NotificationType = "margin_call"
	NotificationSystem            NotificationType = "system"
)

type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Notification is a persisted user-facing message. Lifecycle:
// created -> sent -> (read | unread indefinitely). Only the read state
// mutates after creation.
type Notification struct {
	ID        string           `json:"id" gorm:"primaryKey;size:36"`
	UserID    uint             `json:"userId" gorm:"index:idx_user_read;index:idx_user_created;not null"`
	Type      NotificationType `json:"type" gorm:"size:32;index;not null"`
	Title     string           `json:"title" gorm:"not null"`
	Message   string           `json:"message" gorm:"not null"`
	Data      json.RawMessage  `json:"data,omitempty" gorm:"type:jsonb"`
	Channels  ChannelList      `json:"channels" gorm:"type:jsonb;serializer:json;not null"`
	IsRead    bool             `json:"isRead" gorm:"index:idx_user_read;default:false"`
	SentAt    *time.Time       `json:"sentAt,omitempty"`
	ReadAt    *time.Time       `json:"readAt,omitempty"`
	CreatedAt time.Time        `json:"createdAt" gorm:"index:idx_user_created"`
}

type ChannelList []Channel

func (cs ChannelList) Contains(c Channel) bool {
	for _, v := range cs {
		if v == c {
			return true
		}
	}
	return false
}

// Typed payloads carried in Notification.Data, keyed by Type. The email
// template generator switches on Type and decodes the matching variant.

type TradeData struct {
	OrderID  string  `json:"orderId,omitempty"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Total    float64 `json:"total"`
}

type BalanceData struct {
	Equity    float64 `json:"equity"`
	Threshold float64 `json:"threshold"`
}

type MarginData struct {
	MarginLevel float64 `json:"marginLevel"`
	Equity      float64 `json:"equity"`
	UsedMargin  float64 `json:"usedMargin"`
}

type PriceAlertData struct {
	Symbol       string  `json:"symbol"`
	TargetPrice  float64 `json:"targetPrice"`
	CurrentPrice float64 `json:"currentPrice"`
	Condition    string  `json:"condition"`
}
