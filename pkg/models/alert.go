package models

import "time"

type AlertCondition string

const (
	AlertAbove AlertCondition = "above"
	AlertBelow AlertCondition = "below"
)

// PriceAlert is a user-declared trigger evaluated against every incoming
// quote for its symbol. Once triggered it stays marked and never re-fires
// for the same crossing.
type PriceAlert struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"userId" gorm:"index;not null"`
	Symbol      string         `json:"symbol" gorm:"size:16;index:idx_alert_symbol_active;not null"`
	TargetPrice float64        `json:"targetPrice" gorm:"not null"`
	Condition   AlertCondition `json:"condition" gorm:"size:8;not null"`
	Active      bool           `json:"active" gorm:"index:idx_alert_symbol_active;default:true"`
	CreatedAt   time.Time      `json:"createdAt"`
	TriggeredAt *time.Time     `json:"triggeredAt,omitempty"`
}

// Triggered reports whether price satisfies the alert condition.
func (a PriceAlert) Triggered(price float64) bool {
	switch a.Condition {
	case AlertAbove:
		return price >= a.TargetPrice
	case AlertBelow:
		return price <= a.TargetPrice
	default:
		return false
	}
}
