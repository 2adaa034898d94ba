package polymarket

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

const (
	gammaEventsPath  = "/events"
	gammaMarketsPath = "/markets"
)

// FetchWindow busca el mercado publicado bajo slug. Prueba primero /events
// (los eventos de la serie up/down contienen un array markets) y, si el
// evento no existe, cae a /markets con filtro por slug. Devuelve (nil, nil)
// cuando el mercado no está publicado todavía o no expone ambos token ids.
func (c *Client) FetchWindow(ctx context.Context, slug string) (*domain.MarketWindow, error) {
	var events gammaEventsResponse
	eventsURL := fmt.Sprintf("%s%s?slug=%s", c.gammaBase, gammaEventsPath, slug)
	if err := c.get(ctx, c.gammaLimiter, eventsURL, &events); err != nil {
		return nil, fmt.Errorf("gamma.FetchWindow: GET /events: %w", err)
	}
	if len(events) > 0 && len(events[0].Markets) > 0 {
		return mapWindow(events[0].Markets[0], slug), nil
	}

	var markets gammaMarketsResponse
	marketsURL := fmt.Sprintf("%s%s?slug=%s", c.gammaBase, gammaMarketsPath, slug)
	if err := c.get(ctx, c.gammaLimiter, marketsURL, &markets); err != nil {
		return nil, fmt.Errorf("gamma.FetchWindow: GET /markets: %w", err)
	}
	if len(markets) > 0 {
		return mapWindow(markets[0], slug), nil
	}

	return nil, nil
}
