package feedfetcher

import (
	"encoding/xml"

	"imobiliaria-sync/internal/core/domain"
)

// Wire structures for the ListingDataFeed XML document. Every leaf is read
// as chardata; normalization happens later in the mapper.

type feedDocument struct {
	XMLName  xml.Name      `xml:"ListingDataFeed"`
	Listings *listingsNode `xml:"Listings"`
}

type listingsNode struct {
	Listing []feedListing `xml:"Listing"`
}

type feedListing struct {
	ListingID       string       `xml:"ListingID"`
	Title           string       `xml:"Title"`
	TransactionType string       `xml:"TransactionType"`
	Details         feedDetails  `xml:"Details"`
	Location        feedLocation `xml:"Location"`
	Media           feedMedia    `xml:"Media"`
}

type feedDetails struct {
	PropertyType              string       `xml:"PropertyType"`
	Description               string       `xml:"Description"`
	ListPrice                 string       `xml:"ListPrice"`
	RentalPrice               string       `xml:"RentalPrice"`
	PropertyAdministrationFee string       `xml:"PropertyAdministrationFee"`
	YearlyTax                 string       `xml:"YearlyTax"`
	MonthlyTax                string       `xml:"MonthlyTax"`
	Bedrooms                  string       `xml:"Bedrooms"`
	Suites                    string       `xml:"Suites"`
	Bathrooms                 string       `xml:"Bathrooms"`
	Garage                    string       `xml:"Garage"`
	LotArea                   string       `xml:"LotArea"`
	LivingArea                string       `xml:"LivingArea"`
	Features                  featuresNode `xml:"Features"`
}

type featuresNode struct {
	Feature []string `xml:"Feature"`
}

type feedLocation struct {
	Address      string `xml:"Address"`
	Neighborhood string `xml:"Neighborhood"`
	City         string `xml:"City"`
	State        string `xml:"State"`
	Latitude     string `xml:"Latitude"`
	Longitude    string `xml:"Longitude"`
}

type feedMedia struct {
	Item []mediaItem `xml:"Item"`
}

type mediaItem struct {
	Primary string `xml:"primary,attr"`
	URL     string `xml:",chardata"`
}

// parseFeed decodes the raw feed body. A document without the Listings
// collection is malformed and aborts the run; an empty collection is a
// valid (empty) feed.
func parseFeed(data []byte) ([]feedListing, error) {
	var doc feedDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &domain.ParseError{Reason: "invalid XML document", Err: err}
	}
	if doc.Listings == nil {
		return nil, &domain.ParseError{Reason: "missing Listings collection"}
	}
	return doc.Listings.Listing, nil
}
