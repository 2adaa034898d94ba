package domain

import (
	"time"

	"github.com/google/uuid"
)

// Strategy tags which entry rule created an order.
type Strategy string

const (
	// StrategyUndervalued buys a side priced at or below its threshold.
	StrategyUndervalued Strategy = "undervalued"
	// StrategyMomentum buys a side priced at or above its threshold.
	StrategyMomentum Strategy = "momentum"
)

// ParseStrategy maps a wire value onto a Strategy.
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(s) {
	case StrategyUndervalued:
		return StrategyUndervalued, true
	case StrategyMomentum:
		return StrategyMomentum, true
	}
	return "", false
}

// OrderStatus is the lifecycle state of a paper order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // created, not yet placed
	OrderStatusOpen      OrderStatus = "open"      // placed, awaiting a fill
	OrderStatusFilled    OrderStatus = "filled"    // completely filled
	OrderStatusCancelled OrderStatus = "cancelled" // withdrawn before filling
	OrderStatusExpired   OrderStatus = "expired"   // window ended without a fill
)

// Order is a simulated buy of one outcome at a limit price.
type Order struct {
	ID         string
	Strategy   Strategy
	WindowSlug string
	Outcome    Outcome
	Price      float64
	Size       float64
	FilledSize float64
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrder creates a pending order with a fresh id.
func NewOrder(strategy Strategy, windowSlug string, outcome Outcome, price, size float64, at time.Time) Order {
	return Order{
		ID:         uuid.New().String(),
		Strategy:   strategy,
		WindowSlug: windowSlug,
		Outcome:    outcome,
		Price:      price,
		Size:       size,
		Status:     OrderStatusPending,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

// Open marks a pending order as placed.
func (o *Order) Open(at time.Time) {
	if o.Status != OrderStatusPending {
		return
	}
	o.Status = OrderStatusOpen
	o.UpdatedAt = at
}

// Fill adds size to the filled amount, capped at the order size. The order
// flips to filled only once completely filled. Orders that are not open
// ignore fills, so a cancelled order can never fill afterwards.
func (o *Order) Fill(size float64, at time.Time) {
	if o.Status != OrderStatusOpen {
		return
	}
	o.FilledSize = min(o.Size, o.FilledSize+size)
	if o.FilledSize >= o.Size {
		o.Status = OrderStatusFilled
	}
	o.UpdatedAt = at
}

// Cancel withdraws a pending or open order. Terminal: partially filled
// orders keep their filled size but receive no further fills.
func (o *Order) Cancel(at time.Time) {
	if o.Status != OrderStatusPending && o.Status != OrderStatusOpen {
		return
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = at
}

// Expire marks an open order whose window resolved before it filled.
func (o *Order) Expire(at time.Time) {
	if o.Status != OrderStatusOpen {
		return
	}
	o.Status = OrderStatusExpired
	o.UpdatedAt = at
}
