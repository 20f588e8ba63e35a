package domain

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultDescriptionHashLimit bounds how many runes of the description feed
// the fingerprint. Edits deep inside long descriptions are not meaningful
// enough to force a full row rewrite.
const DefaultDescriptionHashLimit = 500

// buildFingerprintPayload creates a stable string from the descriptive fields
// of a listing. Housekeeping fields (status, timestamps, provider tag,
// derived geohash) are deliberately excluded: they must never make content
// look "changed".
func buildFingerprintPayload(l Listing, descLimit int) string {
	if descLimit <= 0 {
		descLimit = DefaultDescriptionHashLimit
	}

	parts := make([]string, 0, 24)

	addString := func(val string) {
		parts = append(parts, strings.ToLower(strings.TrimSpace(val)))
	}
	addInt := func(val int) {
		parts = append(parts, strconv.Itoa(val))
	}
	// Fixed-decimal so that 1 and 1.0 hash identically.
	addMoney := func(val float64) {
		parts = append(parts, strconv.FormatFloat(val, 'f', 2, 64))
	}
	addCoord := func(val float64) {
		parts = append(parts, strconv.FormatFloat(val, 'f', 6, 64))
	}

	addString(l.Title)
	addString(l.PropertyType)
	addString(l.TransactionType)
	addString(l.City)
	addString(l.Neighborhood)
	addString(l.Address)
	addString(l.State)

	addInt(l.Bedrooms)
	addInt(l.Suites)
	addInt(l.Bathrooms)
	addInt(l.ParkingSpaces)

	addMoney(l.TotalArea)
	addMoney(l.UsableArea)
	addMoney(l.SalePrice)
	addMoney(l.RentPrice)
	addMoney(l.CondoFee)
	addMoney(l.Tax)

	addCoord(l.Latitude)
	addCoord(l.Longitude)

	addString(truncateRunes(l.Description, descLimit))

	// Feature order carries no meaning; sort it away so feed-side shuffles
	// do not churn the hash.
	features := append([]string(nil), l.Features...)
	sort.Strings(features)
	parts = append(parts, strings.Join(features, ","))

	// Photo order is meaningless except for the cover at index 0.
	if len(l.PhotoURLs) > 0 {
		parts = append(parts, l.PhotoURLs[0])
		rest := append([]string(nil), l.PhotoURLs[1:]...)
		sort.Strings(rest)
		parts = append(parts, strings.Join(rest, ","))
	} else {
		parts = append(parts, "", "")
	}

	return strings.Join(parts, "|")
}

// ComputeFingerprint returns the sha256 content digest of a listing's
// descriptive fields. It is total: any canonical listing hashes.
func ComputeFingerprint(l Listing, descLimit int) string {
	h := sha256.New()
	h.Write([]byte(buildFingerprintPayload(l, descLimit)))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
