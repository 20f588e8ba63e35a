package port

import (
	"context"

	"imobiliaria-sync/internal/core/domain"
)

// FeedFetcherPort retrieves the provider's XML feed and turns it into
// normalized listings. Retry/backoff lives behind this port; the core only
// sees the final outcome.
type FeedFetcherPort interface {
	// FetchListings returns the full normalized feed snapshot.
	// Errors are *domain.FetchError or *domain.ParseError, both fatal.
	FetchListings(ctx context.Context) (*domain.FeedResult, error)
}
