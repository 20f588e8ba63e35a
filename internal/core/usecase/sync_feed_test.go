package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"imobiliaria-sync/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	result *domain.FeedResult
	err    error
}

func (f *fakeFetcher) FetchListings(ctx context.Context) (*domain.FeedResult, error) {
	return f.result, f.err
}

// fakeCache records every call; operations are guarded because the use case
// issues writes concurrently.
type fakeCache struct {
	mu sync.Mutex

	snapshot []domain.SnapshotRow
	pageErr  error

	upserted     []domain.Listing
	refreshed    []string
	retired      []string
	upsertErr    error
	retireCalled bool
}

func (c *fakeCache) LoadSnapshotPage(ctx context.Context, provider, afterID string, limit int) ([]domain.SnapshotRow, error) {
	if c.pageErr != nil {
		return nil, c.pageErr
	}
	page := make([]domain.SnapshotRow, 0, limit)
	for _, row := range c.snapshot {
		if row.ListingID > afterID {
			page = append(page, row)
		}
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (c *fakeCache) UpsertListings(ctx context.Context, listings []domain.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.upsertErr != nil {
		return c.upsertErr
	}
	c.upserted = append(c.upserted, listings...)
	return nil
}

func (c *fakeCache) RefreshUnchanged(ctx context.Context, provider string, listingIDs []string, seenAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshed = append(c.refreshed, listingIDs...)
	return nil
}

func (c *fakeCache) RetireMissing(ctx context.Context, provider string, listingIDs []string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retireCalled = true
	c.retired = append(c.retired, listingIDs...)
	return int64(len(listingIDs)), nil
}

type fakeRunLog struct {
	mu        sync.Mutex
	summaries []domain.RunSummary
	err       error
}

func (l *fakeRunLog) AppendRunLog(ctx context.Context, summary domain.RunSummary) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.summaries = append(l.summaries, summary)
	return l.err
}

type fakeReporter struct {
	mu        sync.Mutex
	published []domain.RunSummary
}

func (r *fakeReporter) PublishRunReport(ctx context.Context, summary domain.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, summary)
	return nil
}

func snapshotRows(entries map[string]domain.SnapshotEntry) []domain.SnapshotRow {
	rows := make([]domain.SnapshotRow, 0, len(entries))
	for id, e := range entries {
		rows = append(rows, domain.SnapshotRow{ListingID: id, Fingerprint: e.Fingerprint, Status: e.Status})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ListingID < rows[j].ListingID })
	return rows
}

func feedListingFixture(id string) domain.Listing {
	return domain.Listing{
		ListingID: id,
		Title:     "Apartamento " + id,
		City:      "CURITIBA",
	}
}

func TestSyncFeedFullRun(t *testing.T) {
	unchanged := feedListingFixture("unchanged")
	unchanged.Provider = "RedeUrbana"
	unchanged.Status = domain.StatusActive
	unchangedHash := domain.ComputeFingerprint(unchanged, 0)

	cache := &fakeCache{
		snapshot: snapshotRows(map[string]domain.SnapshotEntry{
			"unchanged": {Fingerprint: unchangedHash, Status: domain.StatusActive},
			"changed":   {Fingerprint: "old-hash", Status: domain.StatusActive},
			"inactive":  {Fingerprint: "old-hash", Status: domain.StatusInactive},
			"vanished":  {Fingerprint: "old-hash", Status: domain.StatusActive},
		}),
	}
	runLog := &fakeRunLog{}
	reporter := &fakeReporter{}
	fetcher := &fakeFetcher{result: &domain.FeedResult{
		TotalRaw: 5,
		Listings: []domain.Listing{
			feedListingFixture("unchanged"),
			feedListingFixture("changed"),
			feedListingFixture("inactive"),
			feedListingFixture("fresh"),
			feedListingFixture("fresh"), // duplicate key in the same feed
		},
	}}

	uc := NewSyncFeedUseCase(fetcher, cache, runLog, reporter, SyncConfig{Provider: "RedeUrbana"})

	summary, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TotalFeed)
	assert.Equal(t, 1, summary.New)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Reactivated)
	assert.Equal(t, 1, summary.Unchanged)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 1, summary.Retired)
	assert.Equal(t, 0, summary.Errors)
	assert.False(t, summary.Fatal)

	// Full-payload writes for new, updated and reactivated rows only.
	upsertedIDs := make([]string, 0, len(cache.upserted))
	for _, l := range cache.upserted {
		upsertedIDs = append(upsertedIDs, l.ListingID)
		assert.Equal(t, "RedeUrbana", l.Provider)
		assert.Equal(t, domain.StatusActive, l.Status)
		assert.NotEmpty(t, l.Fingerprint)
		assert.False(t, l.LastSeenAt.IsZero())
		assert.False(t, l.LastChangedAt.IsZero())
	}
	sort.Strings(upsertedIDs)
	assert.Equal(t, []string{"changed", "fresh", "inactive"}, upsertedIDs)

	// Unchanged rows got a housekeeping touch only.
	assert.Equal(t, []string{"unchanged"}, cache.refreshed)

	// Retirement hit exactly the active key missing from the feed.
	assert.Equal(t, []string{"vanished"}, cache.retired)

	// One run-log row and one published report.
	require.Len(t, runLog.summaries, 1)
	require.Len(t, reporter.published, 1)
	assert.Equal(t, summary.RunID, runLog.summaries[0].RunID)
}

func TestSyncFeedEmptyFeedSkipsRetire(t *testing.T) {
	cache := &fakeCache{
		snapshot: snapshotRows(map[string]domain.SnapshotEntry{
			"a": {Fingerprint: "1", Status: domain.StatusActive},
			"b": {Fingerprint: "2", Status: domain.StatusActive},
		}),
	}
	runLog := &fakeRunLog{}
	fetcher := &fakeFetcher{result: &domain.FeedResult{TotalRaw: 0}}

	uc := NewSyncFeedUseCase(fetcher, cache, runLog, nil, SyncConfig{Provider: "RedeUrbana"})

	summary, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.False(t, cache.retireCalled, "an empty feed must never retire the whole cache")
	assert.Equal(t, 0, summary.Retired)
	require.Len(t, runLog.summaries, 1)
}

func TestSyncFeedAllRecordsSkippedSkipsRetire(t *testing.T) {
	cache := &fakeCache{
		snapshot: snapshotRows(map[string]domain.SnapshotEntry{
			"a": {Fingerprint: "1", Status: domain.StatusActive},
		}),
	}
	// Records existed but none were usable (all missing an id).
	fetcher := &fakeFetcher{result: &domain.FeedResult{TotalRaw: 3, SkippedNoID: 3}}

	uc := NewSyncFeedUseCase(fetcher, cache, &fakeRunLog{}, nil, SyncConfig{Provider: "RedeUrbana"})

	summary, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.False(t, cache.retireCalled)
	assert.Equal(t, 3, summary.SkippedNoID)
}

func TestSyncFeedFetchFailureIsFatal(t *testing.T) {
	cache := &fakeCache{}
	runLog := &fakeRunLog{}
	fetcher := &fakeFetcher{err: &domain.FetchError{URL: "http://feed", Err: errors.New("timeout")}}

	uc := NewSyncFeedUseCase(fetcher, cache, runLog, nil, SyncConfig{Provider: "RedeUrbana"})

	summary, err := uc.Execute(context.Background())
	require.Error(t, err)

	assert.True(t, summary.Fatal)
	assert.NotEmpty(t, summary.ErrorMessage)
	assert.False(t, cache.retireCalled)
	assert.Empty(t, cache.upserted)

	// The failure is still recorded durably.
	require.Len(t, runLog.summaries, 1)
	assert.True(t, runLog.summaries[0].Fatal)
}

func TestSyncFeedSnapshotFailureIsFatal(t *testing.T) {
	cache := &fakeCache{pageErr: errors.New("connection refused")}
	runLog := &fakeRunLog{}
	fetcher := &fakeFetcher{result: &domain.FeedResult{}}

	uc := NewSyncFeedUseCase(fetcher, cache, runLog, nil, SyncConfig{Provider: "RedeUrbana"})

	summary, err := uc.Execute(context.Background())
	require.Error(t, err)

	var snapErr *domain.SnapshotReadError
	assert.ErrorAs(t, err, &snapErr)
	assert.True(t, summary.Fatal)
	require.Len(t, runLog.summaries, 1)
}

func TestSyncFeedBatchFailureDoesNotAbortRun(t *testing.T) {
	cache := &fakeCache{
		snapshot: snapshotRows(map[string]domain.SnapshotEntry{
			"vanished": {Fingerprint: "x", Status: domain.StatusActive},
		}),
		upsertErr: errors.New("deadlock detected"),
	}
	fetcher := &fakeFetcher{result: &domain.FeedResult{
		TotalRaw: 2,
		Listings: []domain.Listing{
			feedListingFixture("a"),
			feedListingFixture("b"),
		},
	}}

	uc := NewSyncFeedUseCase(fetcher, cache, &fakeRunLog{}, nil, SyncConfig{
		Provider:       "RedeUrbana",
		WriteBatchSize: 1,
	})

	summary, err := uc.Execute(context.Background())
	require.NoError(t, err, "batch write failures must not fail the run")

	assert.Equal(t, 2, summary.Errors)
	assert.False(t, summary.Fatal)

	// Retirement still runs: the classify pass completed, so the retire set
	// is trustworthy regardless of write failures.
	assert.Equal(t, []string{"vanished"}, cache.retired)
}

func TestSyncFeedSnapshotPagination(t *testing.T) {
	entries := map[string]domain.SnapshotEntry{}
	listings := make([]domain.Listing, 0, 7)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		l := feedListingFixture(id)
		l.Provider = "RedeUrbana"
		l.Status = domain.StatusActive
		entries[id] = domain.SnapshotEntry{
			Fingerprint: domain.ComputeFingerprint(l, 0),
			Status:      domain.StatusActive,
		}
		listings = append(listings, feedListingFixture(id))
	}

	cache := &fakeCache{snapshot: snapshotRows(entries)}
	fetcher := &fakeFetcher{result: &domain.FeedResult{TotalRaw: len(listings), Listings: listings}}

	uc := NewSyncFeedUseCase(fetcher, cache, &fakeRunLog{}, nil, SyncConfig{
		Provider:         "RedeUrbana",
		SnapshotPageSize: 3, // forces multiple keyset pages
	})

	summary, err := uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, summary.Unchanged)
	assert.Zero(t, summary.New)
	assert.Empty(t, cache.retired)
}
