package feedfetcher

import (
	"sort"
	"strconv"
	"strings"

	"imobiliaria-sync/internal/constants"
	"imobiliaria-sync/internal/core/domain"

	"github.com/mmcloughlin/geohash"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const geohashPrecision = 7

var cityCaser = cases.Upper(language.BrazilianPortuguese)

// mapFeedListing converts one raw feed record into a normalized domain
// listing. It returns false when the record has no listing id and must be
// skipped.
func mapFeedListing(raw feedListing, defaultState string) (domain.Listing, bool) {
	listingID := normalizeText(raw.ListingID)
	if listingID == "" {
		return domain.Listing{}, false
	}

	listing := domain.Listing{
		ListingID:       listingID,
		Title:           normalizeText(raw.Title),
		PropertyType:    normalizeText(raw.Details.PropertyType),
		TransactionType: normalizeText(raw.TransactionType),
		Address:         normalizeText(raw.Location.Address),
		Neighborhood:    normalizeText(raw.Location.Neighborhood),
		City:            cityCaser.String(normalizeText(raw.Location.City)),
		State:           normalizeText(raw.Location.State),
		Bedrooms:        parseIntField(raw.Details.Bedrooms),
		Suites:          parseIntField(raw.Details.Suites),
		Bathrooms:       parseIntField(raw.Details.Bathrooms),
		ParkingSpaces:   parseIntField(raw.Details.Garage),
		TotalArea:       parseNumberField(raw.Details.LotArea),
		UsableArea:      parseNumberField(raw.Details.LivingArea),
		CondoFee:        parseNumberField(raw.Details.PropertyAdministrationFee),
		Description:     normalizeText(raw.Details.Description),
	}

	if listing.State == "" {
		listing.State = defaultState
	}

	listing.SalePrice, listing.RentPrice = splitPrices(
		listing.TransactionType,
		parseNumberField(raw.Details.ListPrice),
		parseNumberField(raw.Details.RentalPrice),
	)

	listing.Tax = parseNumberField(raw.Details.YearlyTax)
	if listing.Tax == 0 {
		listing.Tax = parseNumberField(raw.Details.MonthlyTax)
	}

	listing.Latitude = parseNumberField(raw.Location.Latitude)
	listing.Longitude = parseNumberField(raw.Location.Longitude)
	if listing.Latitude != 0 && listing.Longitude != 0 {
		listing.Geohash = geohash.EncodeWithPrecision(listing.Latitude, listing.Longitude, geohashPrecision)
	}

	listing.Features = normalizeFeatures(raw.Details.Features.Feature)
	listing.PhotoURLs = normalizePhotos(raw.Media.Item)

	return listing, true
}

// splitPrices assigns sale and rent values according to the transaction
// type. Rentals fall back to the list price when no rental price is given.
func splitPrices(transactionType string, listPrice, rentalPrice float64) (sale, rent float64) {
	switch transactionType {
	case constants.TransactionForRent:
		rent = rentalPrice
		if rent == 0 {
			rent = listPrice
		}
	case constants.TransactionForSale:
		sale = listPrice
	default:
		sale = listPrice
		rent = rentalPrice
	}
	return sale, rent
}

// normalizePhotos keeps only http(s) URLs and promotes the primary photo
// to the front of the slice; the relative order of the rest is preserved.
func normalizePhotos(items []mediaItem) []string {
	var cover string
	urls := make([]string, 0, len(items))

	for _, item := range items {
		url := normalizeText(item.URL)
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue
		}
		if cover == "" && item.Primary == constants.MediaPrimaryAttr {
			cover = url
			continue
		}
		urls = append(urls, url)
	}

	if cover != "" {
		urls = append([]string{cover}, urls...)
	}
	return urls
}

// normalizeFeatures trims, deduplicates and sorts the feature list so
// equivalent feeds always produce the same slice.
func normalizeFeatures(features []string) []string {
	seen := make(map[string]struct{}, len(features))
	out := make([]string, 0, len(features))

	for _, feature := range features {
		feature = normalizeText(feature)
		if feature == "" {
			continue
		}
		if _, ok := seen[feature]; ok {
			continue
		}
		seen[feature] = struct{}{}
		out = append(out, feature)
	}

	sort.Strings(out)
	return out
}

// normalizeText trims the value and collapses internal whitespace runs to
// a single space.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseNumberField reads a feed number; malformed or blank values become 0.
func parseNumberField(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return value
}

// parseIntField reads a feed integer; malformed or blank values become 0.
func parseIntField(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	value, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return value
}
