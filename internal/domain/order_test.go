package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderTime = time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	fillTime  = orderTime.Add(4 * time.Second)
)

func newTestOrder() Order {
	return NewOrder(StrategyUndervalued, "btc-updown-15m-1756100700", OutcomeUp, 0.40, 10, orderTime)
}

func TestNewOrder_Defaults(t *testing.T) {
	o := newTestOrder()
	require.NotEmpty(t, o.ID)
	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, 0.0, o.FilledSize)
	assert.Equal(t, orderTime, o.CreatedAt)
	assert.Equal(t, orderTime, o.UpdatedAt)
}

func TestNewOrder_UniqueIDs(t *testing.T) {
	assert.NotEqual(t, newTestOrder().ID, newTestOrder().ID)
}

func TestOrderOpen_FromPending(t *testing.T) {
	o := newTestOrder()
	o.Open(fillTime)
	assert.Equal(t, OrderStatusOpen, o.Status)
	assert.Equal(t, fillTime, o.UpdatedAt)
}

func TestOrderOpen_IgnoredWhenTerminal(t *testing.T) {
	o := newTestOrder()
	o.Open(orderTime)
	o.Cancel(orderTime)
	o.Open(fillTime)
	assert.Equal(t, OrderStatusCancelled, o.Status)
}

// --- Fill ---

func TestOrderFill_Partial(t *testing.T) {
	o := newTestOrder()
	o.Open(orderTime)
	o.Fill(4, fillTime)
	assert.Equal(t, 4.0, o.FilledSize)
	assert.Equal(t, OrderStatusOpen, o.Status)
}

func TestOrderFill_Complete(t *testing.T) {
	o := newTestOrder()
	o.Open(orderTime)
	o.Fill(10, fillTime)
	assert.Equal(t, 10.0, o.FilledSize)
	assert.Equal(t, OrderStatusFilled, o.Status)
	assert.Equal(t, fillTime, o.UpdatedAt)
}

func TestOrderFill_CappedAtSize(t *testing.T) {
	o := newTestOrder()
	o.Open(orderTime)
	o.Fill(7, fillTime)
	o.Fill(7, fillTime)
	assert.Equal(t, 10.0, o.FilledSize)
	assert.Equal(t, OrderStatusFilled, o.Status)
}

func TestOrderFill_IgnoredWhenPending(t *testing.T) {
	o := newTestOrder()
	o.Fill(10, fillTime)
	assert.Equal(t, 0.0, o.FilledSize)
	assert.Equal(t, OrderStatusPending, o.Status)
}

func TestOrderFill_IgnoredAfterCancel(t *testing.T) {
	o := newTestOrder()
	o.Open(orderTime)
	o.Fill(4, orderTime)
	o.Cancel(orderTime)
	o.Fill(6, fillTime)
	assert.Equal(t, 4.0, o.FilledSize)
	assert.Equal(t, OrderStatusCancelled, o.Status)
}

// --- Cancel / Expire ---

func TestOrderCancel_FromPendingAndOpen(t *testing.T) {
	pending := newTestOrder()
	pending.Cancel(fillTime)
	assert.Equal(t, OrderStatusCancelled, pending.Status)

	open := newTestOrder()
	open.Open(orderTime)
	open.Cancel(fillTime)
	assert.Equal(t, OrderStatusCancelled, open.Status)
}

func TestOrderCancel_IgnoredWhenFilled(t *testing.T) {
	o := newTestOrder()
	o.Open(orderTime)
	o.Fill(10, orderTime)
	o.Cancel(fillTime)
	assert.Equal(t, OrderStatusFilled, o.Status)
}

func TestOrderExpire_OnlyOpenOrders(t *testing.T) {
	o := newTestOrder()
	o.Open(orderTime)
	o.Expire(fillTime)
	assert.Equal(t, OrderStatusExpired, o.Status)

	pending := newTestOrder()
	pending.Expire(fillTime)
	assert.Equal(t, OrderStatusPending, pending.Status)
}

func TestParseStrategy(t *testing.T) {
	s, ok := ParseStrategy("momentum")
	require.True(t, ok)
	assert.Equal(t, StrategyMomentum, s)

	_, ok = ParseStrategy("martingale")
	assert.False(t, ok)
}
