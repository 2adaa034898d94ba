package polymarket

import (
	"context"
	"fmt"
	"log/slog"
)

const booksPath = "/books"

// FetchPrices devuelve el midpoint actual de cada outcome token usando el
// endpoint batch POST /books del CLOB. Un midpoint nil significa que el book
// no tenía ese lado cotizado (o que la API no devolvió el book); el caller
// decide cómo tratar la falta de quote.
func (c *Client) FetchPrices(ctx context.Context, upTokenID, downTokenID string) (up, down *float64, err error) {
	body := []orderBookRequest{
		{TokenID: upTokenID},
		{TokenID: downTokenID},
	}

	var resp []orderBookResponse
	if err := c.post(ctx, c.booksLimiter, c.clobBase+booksPath, body, &resp); err != nil {
		return nil, nil, fmt.Errorf("clob.FetchPrices: POST /books: %w", err)
	}

	for _, book := range resp {
		mid := bookMidpoint(book)
		switch book.AssetID {
		case upTokenID:
			up = mid
		case downTokenID:
			down = mid
		}
	}

	slog.Debug("prices fetched",
		"up_quoted", up != nil,
		"down_quoted", down != nil,
	)
	return up, down, nil
}
