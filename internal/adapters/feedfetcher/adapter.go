package feedfetcher

import (
	"context"
	"fmt"
	"time"

	"imobiliaria-sync/internal/contextkeys"
	"imobiliaria-sync/internal/core/domain"
	"imobiliaria-sync/internal/core/port"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// FetcherConfig configures the feed fetcher adapter.
type FetcherConfig struct {
	FeedURL      string
	DefaultState string        // region code applied when the feed omits one
	Timeout      time.Duration // per-request timeout
	MaxAttempts  int           // bounded retry count for the fetch
	BaseDelay    time.Duration // first backoff delay, doubled per attempt
}

// FeedFetcherAdapter retrieves the provider's ListingDataFeed XML and maps
// it into normalized domain listings.
type FeedFetcherAdapter struct {
	// parent collector; clones share its limits and transport settings
	collector *colly.Collector
	cfg       FetcherConfig
}

// NewFeedFetcherAdapter is the constructor
func NewFeedFetcherAdapter(cfg FetcherConfig) (*FeedFetcherAdapter, error) {
	if cfg.FeedURL == "" {
		return nil, fmt.Errorf("FeedFetcherAdapter: feed URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}

	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(cfg.Timeout)

	extensions.RandomUserAgent(c)

	return &FeedFetcherAdapter{
		collector: c,
		cfg:       cfg,
	}, nil
}

// FetchListings downloads the feed (with bounded retry and exponential
// backoff), decodes it and normalizes every record. A blank ListingID skips
// the record; a missing Listings collection is a fatal parse error.
func (a *FeedFetcherAdapter) FetchListings(ctx context.Context) (*domain.FeedResult, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	fetchLogger := logger.WithFields(port.Fields{"component": "FeedFetcherAdapter"})

	var body []byte
	err := withRetry(ctx, fetchLogger, "feed download", a.cfg.MaxAttempts, a.cfg.BaseDelay, func() error {
		data, err := a.fetchOnce(fetchLogger)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, &domain.FetchError{URL: a.cfg.FeedURL, Err: err}
	}
	fetchLogger.Info("Feed downloaded", port.Fields{"bytes": len(body)})

	items, err := parseFeed(body)
	if err != nil {
		return nil, err
	}

	result := &domain.FeedResult{
		TotalRaw: len(items),
		Listings: make([]domain.Listing, 0, len(items)),
	}
	for _, item := range items {
		listing, ok := mapFeedListing(item, a.cfg.DefaultState)
		if !ok {
			result.SkippedNoID++
			continue
		}
		result.Listings = append(result.Listings, listing)
	}

	if result.SkippedNoID > 0 {
		fetchLogger.Warn("Feed records without a listing id were skipped", port.Fields{
			"skipped": result.SkippedNoID,
		})
	}

	return result, nil
}

// fetchOnce performs a single download attempt over a collector clone.
func (a *FeedFetcherAdapter) fetchOnce(logger port.LoggerPort) ([]byte, error) {
	collector := a.collector.Clone()

	var body []byte
	var fetchErr error

	collector.OnRequest(func(r *colly.Request) {
		logger.Debug("Requesting feed", port.Fields{"url": r.URL.String()})
	})

	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("feed request failed with status %d: %w", r.StatusCode, err)
	})

	if err := collector.Visit(a.cfg.FeedURL); err != nil {
		return nil, fmt.Errorf("failed to visit feed URL: %w", err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("feed response body is empty")
	}
	return body, nil
}
