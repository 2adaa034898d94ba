package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// evaluateEntry pide las dos cotizaciones de la ventana y aplica las dos
// reglas de entrada. Sin cotizaciones completas la ventana NO se marca
// procesada: el siguiente tick vuelve a intentarlo mientras quede countdown.
func (e *Engine) evaluateEntry(ctx context.Context, win *domain.MarketWindow) {
	up, down, err := e.prices.FetchPrices(ctx, win.UpTokenID, win.DownTokenID)
	if err != nil {
		slog.Warn("quote fetch failed", "slug", win.Slug, "err", err)
		return
	}
	if up == nil || down == nil {
		slog.Warn("no quotes for window yet", "slug", win.Slug)
		return
	}

	slog.Info("evaluating entry",
		"slug", win.Slug,
		"up", fmt.Sprintf("%.3f", *up),
		"down", fmt.Sprintf("%.3f", *down),
	)

	// Undervalued: compra el lado barato. Up tiene prioridad si ambos
	// cualifican.
	if *up <= e.cfg.UndervaluedThreshold {
		e.placeOrder(ctx, domain.StrategyUndervalued, win, domain.OutcomeUp, *up)
	} else if *down <= e.cfg.UndervaluedThreshold {
		e.placeOrder(ctx, domain.StrategyUndervalued, win, domain.OutcomeDown, *down)
	}

	// Momentum: compra el lado favorito, misma prioridad.
	if *up >= e.cfg.MomentumThreshold {
		e.placeOrder(ctx, domain.StrategyMomentum, win, domain.OutcomeUp, *up)
	} else if *down >= e.cfg.MomentumThreshold {
		e.placeOrder(ctx, domain.StrategyMomentum, win, domain.OutcomeDown, *down)
	}

	e.markProcessed(win.Slug)
}

// placeOrder crea la orden y la abre inmediatamente: en paper trading no
// hay venue que pueda rechazarla.
func (e *Engine) placeOrder(ctx context.Context, strategy domain.Strategy, win *domain.MarketWindow, outcome domain.Outcome, price float64) {
	now := e.cfg.Now()
	order := domain.NewOrder(strategy, win.Slug, outcome, price, e.cfg.OrderSize, now)
	order.Open(now)

	e.mu.Lock()
	e.orders[order.ID] = order
	e.mu.Unlock()

	e.saveOrder(ctx, order)
	e.notifier.NotifyOrderPlaced(order)

	slog.Info("order placed",
		"strategy", strategy,
		"outcome", outcome,
		"price", price,
		"size", e.cfg.OrderSize,
		"slug", win.Slug,
	)
}

func (e *Engine) isProcessed(slug string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.processed[slug]
	return ok
}

func (e *Engine) markProcessed(slug string) {
	e.mu.Lock()
	e.processed[slug] = struct{}{}
	e.mu.Unlock()
}
