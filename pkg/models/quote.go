package models

import "time"

// Quote is the latest enriched snapshot for a tracked symbol. A new row is
// written every refresh cycle; rows are never updated afterwards except for
// the same-cycle indicator backfill.
type Quote struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Symbol    string    `json:"symbol" gorm:"size:16;uniqueIndex:idx_symbol_timestamp;not null"`
	Price     float64   `json:"price" gorm:"not null"`
	Change24h float64   `json:"change_24h"`
	High24h   float64   `json:"high_24h"`
	Low24h    float64   `json:"low_24h"`
	Volume24h *float64  `json:"volume_24h,omitempty"`
	Timestamp time.Time `json:"timestamp" gorm:"uniqueIndex:idx_symbol_timestamp;not null"`
	IsDelayed bool      `json:"is_delayed" gorm:"default:true"`
	MA20      *float64  `json:"ma_20,omitempty" gorm:"column:ma_20"`
	MA50      *float64  `json:"ma_50,omitempty" gorm:"column:ma_50"`
	RSI14     *float64  `json:"rsi_14,omitempty" gorm:"column:rsi_14"`
}

func (Quote) TableName() string { return "market_data" }

// PriceUpdate is the per-symbol payload pushed to market topic subscribers
// on every refresh tick.
type PriceUpdate struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Timestamp     time.Time `json:"timestamp"`
}
