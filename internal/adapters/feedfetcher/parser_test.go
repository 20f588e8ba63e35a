package feedfetcher

import (
	"testing"

	"imobiliaria-sync/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeed(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<ListingDataFeed>
  <Listings>
    <Listing>
      <ListingID>IMV-1</ListingID>
      <Title>Casa no Batel</Title>
      <TransactionType>For Sale</TransactionType>
      <Details>
        <PropertyType>Casa</PropertyType>
        <ListPrice>850000</ListPrice>
        <Bedrooms>4</Bedrooms>
        <Features>
          <Feature>Piscina</Feature>
          <Feature>Jardim</Feature>
        </Features>
      </Details>
      <Location>
        <City>Curitiba</City>
        <State>PR</State>
      </Location>
      <Media>
        <Item primary="true">https://cdn.example.com/1.jpg</Item>
        <Item>https://cdn.example.com/2.jpg</Item>
      </Media>
    </Listing>
    <Listing>
      <ListingID>IMV-2</ListingID>
    </Listing>
  </Listings>
</ListingDataFeed>`)

	items, err := parseFeed(body)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "IMV-1", items[0].ListingID)
	assert.Equal(t, "Casa no Batel", items[0].Title)
	assert.Equal(t, "For Sale", items[0].TransactionType)
	assert.Equal(t, "Casa", items[0].Details.PropertyType)
	assert.Equal(t, "850000", items[0].Details.ListPrice)
	assert.Equal(t, []string{"Piscina", "Jardim"}, items[0].Details.Features.Feature)
	assert.Equal(t, "Curitiba", items[0].Location.City)
	require.Len(t, items[0].Media.Item, 2)
	assert.Equal(t, "true", items[0].Media.Item[0].Primary)
	assert.Equal(t, "https://cdn.example.com/1.jpg", items[0].Media.Item[0].URL)
}

func TestParseFeedEmptyListings(t *testing.T) {
	body := []byte(`<ListingDataFeed><Listings></Listings></ListingDataFeed>`)

	items, err := parseFeed(body)
	require.NoError(t, err)
	assert.Empty(t, items, "an empty collection is a valid empty feed")
}

func TestParseFeedMissingListingsCollection(t *testing.T) {
	body := []byte(`<ListingDataFeed><Header>oops</Header></ListingDataFeed>`)

	_, err := parseFeed(body)
	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Reason, "Listings")
}

func TestParseFeedInvalidXML(t *testing.T) {
	_, err := parseFeed([]byte(`{"not":"xml"}`))
	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
}
