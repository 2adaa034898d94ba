package ports

import (
	"context"

	"github.com/alejandrodnm/updownbot/internal/domain"
)

// WindowProvider looks up up/down market windows by slug.
type WindowProvider interface {
	// FetchWindow returns the window published under slug, or (nil, nil)
	// when no market exists for it yet. Markets missing either outcome
	// token id are unusable and reported as nonexistent.
	FetchWindow(ctx context.Context, slug string) (*domain.MarketWindow, error)
}
