package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// checkResolutions expira órdenes de ventanas muertas y liquida los trades
// pendientes cuya ventana ya terminó. Los checks contra la API se espacian
// por slug con cfg.ResolutionInterval; un mercado terminado pero aún sin
// resolver en la API simplemente sigue pendiente.
func (e *Engine) checkResolutions(ctx context.Context) {
	now := e.cfg.Now()

	e.expireStaleOrders(ctx, now)

	e.mu.RLock()
	slugs := make(map[string]struct{})
	for _, tr := range e.trades {
		if tr.Result == domain.TradeResultPending {
			slugs[tr.WindowSlug] = struct{}{}
		}
	}
	e.mu.RUnlock()

	for slug := range slugs {
		end, ok := e.windowEndTime(slug)
		if !ok {
			slog.Warn("cannot determine window end", "slug", slug)
			continue
		}
		if !now.After(end) {
			continue
		}
		if !e.claimResolutionCheck(slug, now) {
			continue
		}

		winner, err := e.tracker.Resolution(ctx, slug)
		if err != nil {
			slog.Debug("resolution check failed", "slug", slug, "err", err)
			continue
		}
		if winner == nil {
			slog.Debug("market ended but not resolved yet", "slug", slug)
			continue
		}

		e.settleWindow(ctx, slug, *winner, now)
	}
}

// settleWindow liquida todos los trades pendientes de la ventana contra el
// outcome ganador. Un solo check de resolución liquida los trades de ambas
// estrategias a la vez.
func (e *Engine) settleWindow(ctx context.Context, slug string, winner domain.Outcome, at time.Time) {
	var settled []domain.Trade

	e.mu.Lock()
	for i := range e.trades {
		if e.trades[i].WindowSlug == slug && e.trades[i].Result == domain.TradeResultPending {
			e.trades[i].Resolve(winner, at)
			settled = append(settled, e.trades[i])
		}
	}
	e.mu.Unlock()

	for _, tr := range settled {
		e.saveTrade(ctx, tr)
		e.notifier.NotifyTradeResolved(tr)
		slog.Info("trade resolved",
			"strategy", tr.Strategy,
			"outcome", tr.Outcome,
			"winner", winner,
			"result", tr.Result,
			"pnl", fmt.Sprintf("%.2f", tr.PnL),
			"slug", slug,
		)
	}
}

// expireStaleOrders marca expired toda orden open cuya ventana terminó sin
// fill, para que el journal no acumule órdenes abiertas de ventanas muertas.
func (e *Engine) expireStaleOrders(ctx context.Context, now time.Time) {
	e.mu.RLock()
	open := make([]domain.Order, 0)
	for _, o := range e.orders {
		if o.Status == domain.OrderStatusOpen {
			open = append(open, o)
		}
	}
	e.mu.RUnlock()

	var expired []domain.Order
	for _, o := range open {
		end, ok := e.windowEndTime(o.WindowSlug)
		if !ok || !now.After(end) {
			continue
		}

		e.mu.Lock()
		cur, exists := e.orders[o.ID]
		if exists && cur.Status == domain.OrderStatusOpen {
			cur.Expire(now)
			e.orders[o.ID] = cur
			expired = append(expired, cur)
		}
		e.mu.Unlock()
	}

	for _, o := range expired {
		e.saveOrder(ctx, o)
		slog.Info("order expired without fill",
			"strategy", o.Strategy,
			"outcome", o.Outcome,
			"slug", o.WindowSlug,
		)
	}
}

// simulateFills simula los fills del paper trading: cada orden open sin
// fill previo se llena entera con probabilidad SimFillProbability por tick,
// y el fill materializa un trade pendiente de resolución.
func (e *Engine) simulateFills(ctx context.Context) {
	now := e.cfg.Now()

	var filled []domain.Order
	var created []domain.Trade

	e.mu.Lock()
	for id, o := range e.orders {
		if o.Status != domain.OrderStatusOpen || o.FilledSize > 0 {
			continue
		}
		if e.cfg.FillRand() >= e.cfg.SimFillProbability {
			continue
		}

		o.Fill(o.Size, now)
		e.orders[id] = o
		tr := domain.NewTradeFromOrder(o)
		e.trades = append(e.trades, tr)

		filled = append(filled, o)
		created = append(created, tr)
	}
	e.mu.Unlock()

	for i, o := range filled {
		e.saveOrder(ctx, o)
		e.saveTrade(ctx, created[i])
		e.notifier.NotifyOrderFilled(o)
		slog.Info("order filled",
			"strategy", o.Strategy,
			"outcome", o.Outcome,
			"price", o.Price,
			"size", o.FilledSize,
			"slug", o.WindowSlug,
		)
	}
}

// windowEndTime resuelve el fin de una ventana: de la lista trackeada si
// sigue ahí, si no derivándolo del slug.
func (e *Engine) windowEndTime(slug string) (time.Time, bool) {
	if win := e.tracker.WindowBySlug(slug); win != nil {
		return win.EndTime, true
	}
	start, err := domain.SlugStartTime(slug)
	if err != nil {
		return time.Time{}, false
	}
	return start.Add(domain.WindowDuration), true
}

// claimResolutionCheck registra un check para el slug si el anterior quedó
// fuera del intervalo. Devuelve false si todavía está throttled.
func (e *Engine) claimResolutionCheck(slug string, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if last, ok := e.resolutionChecks[slug]; ok && now.Sub(last) < e.cfg.ResolutionInterval {
		return false
	}
	e.resolutionChecks[slug] = now
	return true
}

func (e *Engine) saveOrder(ctx context.Context, o domain.Order) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveOrder(ctx, o); err != nil {
		slog.Warn("storage error", "order", o.ID, "err", err)
	}
}

func (e *Engine) saveTrade(ctx context.Context, t domain.Trade) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveTrade(ctx, t); err != nil {
		slog.Warn("storage error", "trade", t.ID, "err", err)
	}
}
