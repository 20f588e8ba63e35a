package constants

// Transaction tags used by the ListingDataFeed schema.
const (
	TransactionForSale = "For Sale"
	TransactionForRent = "For Rent"
)

// Feed element names that matter outside the decoder.
const (
	MediaPrimaryAttr = "true"
)
