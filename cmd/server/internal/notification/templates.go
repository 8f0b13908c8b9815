package notification

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

// emailContent renders the type-specific HTML body for a notification.
// Unknown or payload-less types fall back to the plain message block.
func emailContent(n *models.Notification) (subject, html string) {
	subject = n.Title

	var block string
	switch n.Type {
	case models.NotificationTradeConfirmation:
		var d models.TradeData
		if json.Unmarshal(n.Data, &d) == nil {
			block = fmt.Sprintf(`
    <table>
      <tr><td>Symbol</td><td>%s</td></tr>
      <tr><td>Side</td><td>%s</td></tr>
      <tr><td>Quantity</td><td>%.8g</td></tr>
      <tr><td>Price</td><td>$%.2f</td></tr>
      <tr><td>Total</td><td>$%.2f</td></tr>
    </table>`, d.Symbol, strings.ToUpper(d.Side), d.Quantity, d.Price, d.Total)
		}
	case models.NotificationBalanceAlert:
		var d models.BalanceData
		if json.Unmarshal(n.Data, &d) == nil {
			block = fmt.Sprintf(`
    <p>Your account equity has dropped to <strong>$%.2f</strong>, below the
    $%.2f threshold. Consider depositing funds or reducing exposure.</p>`, d.Equity, d.Threshold)
		}
	case models.NotificationMarginCall:
		var d models.MarginData
		if json.Unmarshal(n.Data, &d) == nil {
			block = fmt.Sprintf(`
    <p>Your margin level is <strong>%.2f%%</strong>
    (equity $%.2f against $%.2f used margin).
    Positions may be liquidated if it falls further.</p>`, d.MarginLevel, d.Equity, d.UsedMargin)
		}
	case models.NotificationPriceAlert:
		var d models.PriceAlertData
		if json.Unmarshal(n.Data, &d) == nil {
			block = fmt.Sprintf(`
    <p><strong>%s</strong> is now trading at <strong>$%.2f</strong>,
    %s your target of $%.2f.</p>`, d.Symbol, d.CurrentPrice, d.Condition, d.TargetPrice)
		}
	}

	html = fmt.Sprintf(`
  <html>
  <body>
    <h2>%s</h2>
    <p>%s</p>
    %s
  </body>
  </html>`, n.Title, n.Message, block)

	return subject, html
}
