package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"imobiliaria-sync/internal/contextkeys"
	"imobiliaria-sync/internal/core/domain"
	"imobiliaria-sync/internal/core/port"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SyncConfig carries the tunables of one sync run.
type SyncConfig struct {
	Provider             string
	SnapshotPageSize     int
	WriteBatchSize       int
	WriteConcurrency     int
	DescriptionHashLimit int
}

// SyncFeedUseCase performs one full one-way reconciliation of the feed
// against the cache table: snapshot load, fetch+normalize, classify, batched
// writes, retirement of vanished keys, and the run summary.
type SyncFeedUseCase struct {
	fetcher  port.FeedFetcherPort
	cache    port.ListingCachePort
	runLog   port.RunLogPort
	reporter port.RunReportQueuePort // optional, may be nil
	cfg      SyncConfig

	now func() time.Time
}

func NewSyncFeedUseCase(
	fetcher port.FeedFetcherPort,
	cache port.ListingCachePort,
	runLog port.RunLogPort,
	reporter port.RunReportQueuePort,
	cfg SyncConfig,
) *SyncFeedUseCase {
	if cfg.SnapshotPageSize <= 0 {
		cfg.SnapshotPageSize = 500
	}
	if cfg.WriteBatchSize <= 0 {
		cfg.WriteBatchSize = 50
	}
	if cfg.WriteConcurrency <= 0 {
		cfg.WriteConcurrency = 1
	}
	return &SyncFeedUseCase{
		fetcher:  fetcher,
		cache:    cache,
		runLog:   runLog,
		reporter: reporter,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Execute runs the synchronization once. A non-nil error means the run was
// fatal (fetch, parse or snapshot failure); batch write failures are counted
// in the summary and do not fail the run. The summary row is appended in
// both outcomes.
func (uc *SyncFeedUseCase) Execute(ctx context.Context) (*domain.RunSummary, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SyncFeed",
		"provider": uc.cfg.Provider,
	})

	summary := &domain.RunSummary{
		RunID:      uuid.New(),
		Provider:   uc.cfg.Provider,
		ExecutedAt: uc.now(),
	}

	ucLogger.Info("Use case started: synchronizing feed against cache", port.Fields{
		"run_id": summary.RunID.String(),
	})

	// 1. Snapshot index. A partial index would turn every missed row into
	// a false "new", so any read error aborts the run.
	index, err := uc.loadSnapshotIndex(ctx)
	if err != nil {
		return uc.fatal(ctx, ucLogger, summary, &domain.SnapshotReadError{Provider: uc.cfg.Provider, Err: err})
	}
	ucLogger.Info("Snapshot index loaded", port.Fields{"indexed_rows": len(index)})

	// 2. Fetch and normalize the feed.
	feed, err := uc.fetcher.FetchListings(ctx)
	if err != nil {
		return uc.fatal(ctx, ucLogger, summary, err)
	}
	summary.TotalFeed = feed.TotalRaw
	summary.SkippedNoID = feed.SkippedNoID
	ucLogger.Info("Feed fetched", port.Fields{
		"total_raw":     feed.TotalRaw,
		"usable":        len(feed.Listings),
		"skipped_no_id": feed.SkippedNoID,
	})

	// 3. Classify every listing against the index.
	now := uc.now()
	reconciler := NewReconciler(index)
	toUpsert := make([]domain.Listing, 0, len(feed.Listings))
	toRefresh := make([]string, 0)

	for _, listing := range feed.Listings {
		listing.Provider = uc.cfg.Provider
		listing.Status = domain.StatusActive
		listing.Fingerprint = domain.ComputeFingerprint(listing, uc.cfg.DescriptionHashLimit)
		listing.LastSeenAt = now

		switch reconciler.Classify(listing) {
		case domain.ClassificationNew:
			summary.New++
			listing.LastChangedAt = now
			toUpsert = append(toUpsert, listing)
		case domain.ClassificationReactivate:
			summary.Reactivated++
			listing.LastChangedAt = now
			toUpsert = append(toUpsert, listing)
		case domain.ClassificationUpdate:
			summary.Updated++
			listing.LastChangedAt = now
			toUpsert = append(toUpsert, listing)
		case domain.ClassificationUnchanged:
			summary.Unchanged++
			toRefresh = append(toRefresh, listing.ListingID)
		case domain.ClassificationDuplicate:
			summary.Duplicates++
		}
	}
	ucLogger.Info("Classification pass complete", port.Fields{
		"new":        summary.New,
		"updated":    summary.Updated,
		"reactivate": summary.Reactivated,
		"unchanged":  summary.Unchanged,
		"duplicates": summary.Duplicates,
	})

	// 4. Flush writes. All upsert/refresh batches must have finished
	// before the retire phase may start.
	uc.flushWrites(ctx, ucLogger, summary, toUpsert, toRefresh, now)

	// 5. Retire what vanished from the feed. The pass over all feed
	// entities completed (we are past step 3), so the guard left to check
	// is the empty-feed catastrophe: zero usable records must never be
	// read as "everything is gone".
	if len(feed.Listings) == 0 {
		ucLogger.Warn("Feed contained no usable records; skipping retire phase", nil)
	} else {
		uc.retireMissing(ctx, ucLogger, summary, reconciler.RetireSet())
	}

	ucLogger.Info("Use case finished", port.Fields{
		"retired": summary.Retired,
		"errors":  summary.Errors,
	})

	uc.report(ctx, ucLogger, summary)
	return summary, nil
}

func (uc *SyncFeedUseCase) loadSnapshotIndex(ctx context.Context) (map[string]domain.SnapshotEntry, error) {
	index := make(map[string]domain.SnapshotEntry)
	afterID := ""
	for {
		page, err := uc.cache.LoadSnapshotPage(ctx, uc.cfg.Provider, afterID, uc.cfg.SnapshotPageSize)
		if err != nil {
			return nil, err
		}
		for _, row := range page {
			index[row.ListingID] = domain.SnapshotEntry{
				Fingerprint: row.Fingerprint,
				Status:      row.Status,
			}
		}
		if len(page) < uc.cfg.SnapshotPageSize {
			return index, nil
		}
		afterID = page[len(page)-1].ListingID
	}
}

// flushWrites issues upsert and refresh batches with a bounded fan-out.
// A failed batch is logged and counted; it never aborts the run.
func (uc *SyncFeedUseCase) flushWrites(
	ctx context.Context,
	logger port.LoggerPort,
	summary *domain.RunSummary,
	toUpsert []domain.Listing,
	toRefresh []string,
	seenAt time.Time,
) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.WriteConcurrency)

	for start := 0; start < len(toUpsert); start += uc.cfg.WriteBatchSize {
		batch := toUpsert[start:min(start+uc.cfg.WriteBatchSize, len(toUpsert))]
		g.Go(func() error {
			if err := uc.cache.UpsertListings(gctx, batch); err != nil {
				logger.Error("Upsert batch failed, continuing with next batch", err, port.Fields{
					"batch_size": len(batch),
				})
				mu.Lock()
				summary.Errors += len(batch)
				mu.Unlock()
			}
			return nil
		})
	}

	for start := 0; start < len(toRefresh); start += uc.cfg.WriteBatchSize {
		batch := toRefresh[start:min(start+uc.cfg.WriteBatchSize, len(toRefresh))]
		g.Go(func() error {
			if err := uc.cache.RefreshUnchanged(gctx, uc.cfg.Provider, batch, seenAt); err != nil {
				logger.Error("Refresh batch failed, continuing with next batch", err, port.Fields{
					"batch_size": len(batch),
				})
				mu.Lock()
				summary.Errors += len(batch)
				mu.Unlock()
			}
			return nil
		})
	}

	// Tasks never return errors; Wait is the ordering barrier in front of
	// the retire phase.
	_ = g.Wait()
}

func (uc *SyncFeedUseCase) retireMissing(
	ctx context.Context,
	logger port.LoggerPort,
	summary *domain.RunSummary,
	retireSet []string,
) {
	if len(retireSet) == 0 {
		logger.Info("Nothing to retire", nil)
		return
	}
	logger.Info("Retiring listings missing from the feed", port.Fields{"retire_set": len(retireSet)})

	for start := 0; start < len(retireSet); start += uc.cfg.WriteBatchSize {
		batch := retireSet[start:min(start+uc.cfg.WriteBatchSize, len(retireSet))]
		flipped, err := uc.cache.RetireMissing(ctx, uc.cfg.Provider, batch)
		if err != nil {
			logger.Error("Retire batch failed, continuing with next batch", err, port.Fields{
				"batch_size": len(batch),
			})
			summary.Errors += len(batch)
			continue
		}
		summary.Retired += int(flipped)
	}
}

// fatal finalizes the summary for an aborted run. The summary row is still
// attempted: it is the durable record of the failure.
func (uc *SyncFeedUseCase) fatal(
	ctx context.Context,
	logger port.LoggerPort,
	summary *domain.RunSummary,
	cause error,
) (*domain.RunSummary, error) {
	summary.Fatal = true
	summary.ErrorMessage = cause.Error()
	logger.Error("Fatal error, aborting remaining phases", cause, nil)

	uc.report(ctx, logger, summary)
	return summary, fmt.Errorf("feed sync aborted: %w", cause)
}

// report appends the run-log row and, when wired, publishes the summary.
// Reporting failures are surfaced in logs only; they never fail the run.
func (uc *SyncFeedUseCase) report(ctx context.Context, logger port.LoggerPort, summary *domain.RunSummary) {
	if err := uc.runLog.AppendRunLog(ctx, *summary); err != nil {
		logger.Error("Failed to append run log row", err, nil)
	}
	if uc.reporter != nil {
		if err := uc.reporter.PublishRunReport(ctx, *summary); err != nil {
			logger.Error("Failed to publish run report", err, nil)
		}
	}
}
