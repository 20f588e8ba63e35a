package usecase

import (
	"testing"

	"imobiliaria-sync/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcilerClassify(t *testing.T) {
	index := map[string]domain.SnapshotEntry{
		"active-same":    {Fingerprint: "aaa", Status: domain.StatusActive},
		"active-changed": {Fingerprint: "bbb", Status: domain.StatusActive},
		"inactive-same":  {Fingerprint: "ccc", Status: domain.StatusInactive},
	}

	tests := []struct {
		name        string
		listingID   string
		fingerprint string
		want        domain.Classification
	}{
		{
			name:        "unknown key is new",
			listingID:   "brand-new",
			fingerprint: "zzz",
			want:        domain.ClassificationNew,
		},
		{
			name:        "active row with same fingerprint is unchanged",
			listingID:   "active-same",
			fingerprint: "aaa",
			want:        domain.ClassificationUnchanged,
		},
		{
			name:        "active row with different fingerprint is update",
			listingID:   "active-changed",
			fingerprint: "changed",
			want:        domain.ClassificationUpdate,
		},
		{
			name:        "inactive row is reactivate even with identical content",
			listingID:   "inactive-same",
			fingerprint: "ccc",
			want:        domain.ClassificationReactivate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler(index)
			got := r.Classify(domain.Listing{ListingID: tt.listingID, Fingerprint: tt.fingerprint})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReconcilerDuplicateKeysWithinRun(t *testing.T) {
	r := NewReconciler(map[string]domain.SnapshotEntry{
		"known": {Fingerprint: "aaa", Status: domain.StatusActive},
	})

	first := r.Classify(domain.Listing{ListingID: "known", Fingerprint: "new-hash"})
	second := r.Classify(domain.Listing{ListingID: "known", Fingerprint: "other-hash"})
	third := r.Classify(domain.Listing{ListingID: "known", Fingerprint: "aaa"})

	assert.Equal(t, domain.ClassificationUpdate, first)
	assert.Equal(t, domain.ClassificationDuplicate, second)
	assert.Equal(t, domain.ClassificationDuplicate, third)
	assert.Equal(t, 1, r.SeenCount())
}

func TestReconcilerRetireSet(t *testing.T) {
	index := map[string]domain.SnapshotEntry{
		"seen-active":      {Fingerprint: "a", Status: domain.StatusActive},
		"missing-active-2": {Fingerprint: "b", Status: domain.StatusActive},
		"missing-active-1": {Fingerprint: "c", Status: domain.StatusActive},
		"missing-inactive": {Fingerprint: "d", Status: domain.StatusInactive},
	}

	r := NewReconciler(index)
	r.Classify(domain.Listing{ListingID: "seen-active", Fingerprint: "a"})

	retire := r.RetireSet()

	// Only active rows absent from the feed, in deterministic order.
	require.Equal(t, []string{"missing-active-1", "missing-active-2"}, retire)
}

func TestReconcilerRetireSetEmptyWhenAllSeen(t *testing.T) {
	index := map[string]domain.SnapshotEntry{
		"a": {Fingerprint: "1", Status: domain.StatusActive},
		"b": {Fingerprint: "2", Status: domain.StatusActive},
	}

	r := NewReconciler(index)
	r.Classify(domain.Listing{ListingID: "a", Fingerprint: "1"})
	r.Classify(domain.Listing{ListingID: "b", Fingerprint: "changed"})

	assert.Empty(t, r.RetireSet())
}

func TestReconcilerNilIndex(t *testing.T) {
	r := NewReconciler(nil)

	assert.Equal(t, domain.ClassificationNew, r.Classify(domain.Listing{ListingID: "x"}))
	assert.Empty(t, r.RetireSet())
}

// A second run over the same data must classify everything as unchanged and
// retire nothing.
func TestReconcilerIdempotentSecondRun(t *testing.T) {
	listings := []domain.Listing{
		{ListingID: "a", Fingerprint: "hash-a"},
		{ListingID: "b", Fingerprint: "hash-b"},
	}

	index := map[string]domain.SnapshotEntry{}
	for _, l := range listings {
		index[l.ListingID] = domain.SnapshotEntry{Fingerprint: l.Fingerprint, Status: domain.StatusActive}
	}

	r := NewReconciler(index)
	for _, l := range listings {
		assert.Equal(t, domain.ClassificationUnchanged, r.Classify(l))
	}
	assert.Empty(t, r.RetireSet())
}
