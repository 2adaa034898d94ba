package ports

import "github.com/alejandrodnm/updownbot/internal/domain"

// Notifier surfaces order and trade lifecycle events to the user.
// Implementations must not block the trading loop.
type Notifier interface {
	NotifyOrderPlaced(o domain.Order)
	NotifyOrderFilled(o domain.Order)
	NotifyTradeResolved(t domain.Trade)
}
