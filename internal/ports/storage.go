package ports

import (
	"context"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// Storage journals paper orders and trades across restarts.
type Storage interface {
	ApplySchema(ctx context.Context) error

	// SaveOrder upserts the order's latest state keyed by id.
	SaveOrder(ctx context.Context, o domain.Order) error
	// SaveTrade upserts the trade's latest state keyed by id.
	SaveTrade(ctx context.Context, t domain.Trade) error

	GetOrders(ctx context.Context) ([]domain.Order, error)
	// GetTrades returns trades for one strategy, or all when strategy is empty.
	GetTrades(ctx context.Context, strategy domain.Strategy) ([]domain.Trade, error)

	// Close releases the underlying database handle.
	Close() error
}
