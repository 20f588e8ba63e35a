package domain

import "time"

const (
	StatusActive   = "ativo"
	StatusInactive = "inativo"
)

// Listing is the canonical representation of one property listing as it
// arrives from the external XML feed, after normalization.
type Listing struct {
	ListingID string
	Provider  string

	Title           string
	PropertyType    string
	TransactionType string

	Address      string
	Neighborhood string
	City         string
	State        string
	Latitude     float64
	Longitude    float64
	Geohash      string

	Bedrooms      int
	Suites        int
	Bathrooms     int
	ParkingSpaces int
	TotalArea     float64
	UsableArea    float64

	SalePrice float64
	RentPrice float64
	CondoFee  float64
	Tax       float64

	Description string
	Features    []string
	PhotoURLs   []string

	// Housekeeping fields, never part of the fingerprint.
	Status        string
	Fingerprint   string
	LastSeenAt    time.Time
	LastChangedAt time.Time
}

// SnapshotRow is one row of prior store state, loaded at run start.
type SnapshotRow struct {
	ListingID   string
	Fingerprint string
	Status      string
}

// SnapshotEntry is the in-memory index value for one prior listing.
type SnapshotEntry struct {
	Fingerprint string
	Status      string
}

// FeedResult is the outcome of one feed fetch: the normalized listings plus
// the raw record count, so the reconciliation accounting stays exact even
// when records are skipped for a missing identity key.
type FeedResult struct {
	Listings    []Listing
	TotalRaw    int
	SkippedNoID int
}

// Classification is the reconciliation outcome for one feed listing.
type Classification int

const (
	// ClassificationNew: key absent from the snapshot index.
	ClassificationNew Classification = iota
	// ClassificationReactivate: key present but inactive; a status flip is
	// required regardless of fingerprint match.
	ClassificationReactivate
	// ClassificationUpdate: key present, active, fingerprint differs.
	ClassificationUpdate
	// ClassificationUnchanged: key present, active, fingerprint matches.
	// Only housekeeping columns may be written for this outcome.
	ClassificationUnchanged
	// ClassificationDuplicate: the key was already classified in this run;
	// the record is dropped so one feed cannot emit conflicting writes.
	ClassificationDuplicate
)

func (c Classification) String() string {
	switch c {
	case ClassificationNew:
		return "new"
	case ClassificationReactivate:
		return "reactivate"
	case ClassificationUpdate:
		return "update"
	case ClassificationUnchanged:
		return "unchanged"
	case ClassificationDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}
