package hub

import "fmt"

// Topic names are case-sensitive and namespaced by a single-colon prefix.
const (
	PrefixMarket        = "market"
	PrefixTrades        = "trades"
	PrefixNotifications = "notifications"
	PrefixChat          = "chat"
)

func MarketTopic(symbol string) string { return fmt.Sprintf("%s:%s", PrefixMarket, symbol) }

func TradesTopic(userID uint) string { return fmt.Sprintf("%s:%d", PrefixTrades, userID) }

func NotificationsTopic(userID uint) string {
	return fmt.Sprintf("%s:%d", PrefixNotifications, userID)
}

func ChatTopic(roomID string) string { return fmt.Sprintf("%s:%s", PrefixChat, roomID) }
