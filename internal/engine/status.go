package engine

import (
	"sort"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// Status es el snapshot del engine para la capa web y el resumen de cierre.
type Status struct {
	Running          bool
	StartedAt        time.Time // zero si nunca ha corrido
	OpenOrders       int
	TotalOrders      int
	TotalTrades      int
	PendingTrades    int
	ProcessedWindows int
}

// Status devuelve el snapshot actual del engine.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	open := 0
	for _, o := range e.orders {
		if o.Status == domain.OrderStatusOpen {
			open++
		}
	}
	pending := 0
	for _, t := range e.trades {
		if t.Result == domain.TradeResultPending {
			pending++
		}
	}

	return Status{
		Running:          e.running,
		StartedAt:        e.startedAt,
		OpenOrders:       open,
		TotalOrders:      len(e.orders),
		TotalTrades:      len(e.trades),
		PendingTrades:    pending,
		ProcessedWindows: len(e.processed),
	}
}

// Config devuelve la configuración efectiva del engine.
func (e *Engine) Config() Config {
	return e.cfg
}

// Orders devuelve una copia de todas las órdenes, más antiguas primero.
func (e *Engine) Orders() []domain.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Order, 0, len(e.orders))
	for _, o := range e.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// OpenOrders devuelve solo las órdenes con status open.
func (e *Engine) OpenOrders() []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range e.Orders() {
		if o.Status == domain.OrderStatusOpen {
			out = append(out, o)
		}
	}
	return out
}

// Trades devuelve una copia de los trades en orden de entrada. Una strategy
// vacía devuelve todos.
func (e *Engine) Trades(strategy domain.Strategy) []domain.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Trade, 0, len(e.trades))
	for _, t := range e.trades {
		if strategy != "" && t.Strategy != strategy {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Metrics calcula las métricas realizadas de una estrategia.
func (e *Engine) Metrics(strategy domain.Strategy) domain.StrategyMetrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return domain.ComputeMetrics(strategy, e.trades)
}
