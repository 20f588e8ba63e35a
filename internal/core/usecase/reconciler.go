package usecase

import (
	"sort"

	"imobiliaria-sync/internal/core/domain"
)

// Reconciler is the pure diffing state machine of a sync run. It classifies
// every feed listing against the snapshot index loaded at run start, tracks
// which keys have been seen in this run, and computes the retire set once
// the whole feed has been consumed.
//
// It never touches the store and cannot fail: all failure lives at the
// fetcher and writer boundaries.
type Reconciler struct {
	index map[string]domain.SnapshotEntry
	seen  map[string]struct{}
}

func NewReconciler(index map[string]domain.SnapshotEntry) *Reconciler {
	if index == nil {
		index = make(map[string]domain.SnapshotEntry)
	}
	return &Reconciler{
		index: index,
		seen:  make(map[string]struct{}),
	}
}

// Classify transitions one listing through the per-key state machine.
// Priority is fixed: duplicate drop, then New > Reactivate > Update >
// Unchanged. The index lookup yields at most one prior state, so the
// outcome is never ambiguous.
func (r *Reconciler) Classify(l domain.Listing) domain.Classification {
	if _, dup := r.seen[l.ListingID]; dup {
		// A malformed feed repeating a key must not emit conflicting
		// writes for it; only the first occurrence counts.
		return domain.ClassificationDuplicate
	}
	r.seen[l.ListingID] = struct{}{}

	prior, ok := r.index[l.ListingID]
	if !ok {
		return domain.ClassificationNew
	}
	if prior.Status != domain.StatusActive {
		// A status flip needs a write even when content is identical:
		// the status column itself must be corrected.
		return domain.ClassificationReactivate
	}
	if prior.Fingerprint != l.Fingerprint {
		return domain.ClassificationUpdate
	}
	return domain.ClassificationUnchanged
}

// RetireSet returns every active index key that was never seen in this run,
// sorted for deterministic batching. Feed absence is the only trigger for
// retirement; keys that are already inactive are left alone.
func (r *Reconciler) RetireSet() []string {
	retire := make([]string, 0)
	for key, entry := range r.index {
		if entry.Status != domain.StatusActive {
			continue
		}
		if _, ok := r.seen[key]; ok {
			continue
		}
		retire = append(retire, key)
	}
	sort.Strings(retire)
	return retire
}

// SeenCount reports how many distinct keys were classified in this run.
func (r *Reconciler) SeenCount() int {
	return len(r.seen)
}
