package ports

import "context"

// PriceProvider quotes current prices for a window's outcome tokens.
type PriceProvider interface {
	// FetchPrices returns the current midpoint price per outcome token.
	// A nil price means the book had no quotable side for that token;
	// callers must treat it as "no quote", not as zero.
	FetchPrices(ctx context.Context, upTokenID, downTokenID string) (up, down *float64, err error)
}
