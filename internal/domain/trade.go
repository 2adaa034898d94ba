package domain

import (
	"time"

	"github.com/google/uuid"
)

// TradeResult is the settlement state of a trade.
type TradeResult string

const (
	TradeResultPending TradeResult = "pending"
	TradeResultWin     TradeResult = "win"
	TradeResultLoss    TradeResult = "loss"
)

// Trade is an open position created from a filled order, settled once the
// window's winning outcome is known.
type Trade struct {
	ID             string
	Strategy       Strategy
	WindowSlug     string
	Outcome        Outcome
	EntryPrice     float64
	Size           float64
	FilledSize     float64
	EntryTime      time.Time // fill time, not order creation time
	ResolutionTime *time.Time
	Result         TradeResult
	PnL            float64
}

// NewTradeFromOrder materializes a trade from a filled order. The entry
// timestamp is the order's last update, which for a filled order is the
// moment of the fill.
func NewTradeFromOrder(o Order) Trade {
	return Trade{
		ID:         uuid.New().String(),
		Strategy:   o.Strategy,
		WindowSlug: o.WindowSlug,
		Outcome:    o.Outcome,
		EntryPrice: o.Price,
		Size:       o.Size,
		FilledSize: o.FilledSize,
		EntryTime:  o.UpdatedAt,
		Result:     TradeResultPending,
	}
}

// Resolve settles the trade against the winning outcome. A winning share
// pays out $1.00, so the profit is size x (1 - entry price); a losing share
// pays nothing and the entry cost is forfeited. Resolving is one-shot: an
// already settled trade is left untouched.
func (t *Trade) Resolve(winner Outcome, at time.Time) {
	if t.Result != TradeResultPending {
		return
	}
	ts := at
	t.ResolutionTime = &ts
	if t.Outcome == winner {
		t.Result = TradeResultWin
		t.PnL = t.Size * (1.0 - t.EntryPrice)
	} else {
		t.Result = TradeResultLoss
		t.PnL = -t.Size * t.EntryPrice
	}
}
