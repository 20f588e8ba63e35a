package port

import (
	"context"
	"time"

	"imobiliaria-sync/internal/core/domain"
)

// ListingCachePort is the persistent cache table boundary. Every method is a
// bulk operation; a call either applies to the whole batch or fails for the
// whole batch — there is no partial-row success.
type ListingCachePort interface {
	// LoadSnapshotPage returns up to limit rows for the provider with
	// listing_id > afterID, ordered by listing_id. A short page ends the
	// snapshot load loop.
	LoadSnapshotPage(ctx context.Context, provider string, afterID string, limit int) ([]domain.SnapshotRow, error)

	// UpsertListings writes full-payload rows for New/Reactivate/Update
	// classifications, keyed by (xml_provider, listing_id), forcing
	// status to active.
	UpsertListings(ctx context.Context, listings []domain.Listing) error

	// RefreshUnchanged touches only housekeeping columns (status, last
	// sync) for listings whose content did not change. Descriptive
	// columns are never part of this statement.
	RefreshUnchanged(ctx context.Context, provider string, listingIDs []string, seenAt time.Time) error

	// RetireMissing flips status to inactive for the given keys, but only
	// where the row is currently active and belongs to the provider.
	// Returns how many rows were actually flipped. Only the status column
	// is written: the retired keys were absent from the feed, so their
	// last-seen timestamp must keep pointing at the run that last carried
	// them.
	RetireMissing(ctx context.Context, provider string, listingIDs []string) (int64, error)
}

// RunLogPort appends one summary row per execution.
type RunLogPort interface {
	AppendRunLog(ctx context.Context, summary domain.RunSummary) error
}

// RunReportQueuePort publishes the run summary to interested consumers.
// Optional: wired only when report publishing is enabled.
type RunReportQueuePort interface {
	PublishRunReport(ctx context.Context, summary domain.RunSummary) error
}
