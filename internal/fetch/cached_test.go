package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCachedFetcherConfig(t *testing.T) {
	config := DefaultCachedFetcherConfig()

	require.NotNil(t, config)
	assert.NotZero(t, config.CacheTTL)
	assert.False(t, config.SkipCache)
	assert.NotNil(t, config.Options)
}

func TestNewCachedFetcher_NilConfig(t *testing.T) {
	fetcher := NewCachedFetcher(nil, nil)

	require.NotNil(t, fetcher)
	assert.NotZero(t, fetcher.cacheTTL)
	assert.NotNil(t, fetcher.options)
}

func TestNewCachedFetcher_EmptyConfig(t *testing.T) {
	fetcher := NewCachedFetcher(nil, &CachedFetcherConfig{})

	require.NotNil(t, fetcher)
	// Zero values fall back to defaults
	assert.NotZero(t, fetcher.cacheTTL)
	assert.NotNil(t, fetcher.options)
}

func TestCachedFetcher_NoStore_FetchesDirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><main><h1>Oakwood Manor</h1><p>Nursing care in leafy grounds.</p></main></body></html>`))
	}))
	defer server.Close()

	fetcher := NewCachedFetcher(nil, &CachedFetcherConfig{
		Options: &Options{Timeout: 5 * time.Second},
	})

	result, err := fetcher.FetchForLocation(context.Background(), server.URL, "1-000000042", "listing")
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, uuid.Nil, result.PageID, "no store means no page ID")
	assert.Contains(t, result.HTML, "Oakwood Manor")
	assert.Contains(t, result.Text, "Nursing care")
}

func TestCachedFetcher_NoStore_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewCachedFetcher(nil, nil)

	result, err := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestNewListingPage(t *testing.T) {
	page := newListingPage("https://www.carehome.co.uk/carehome.cfm/searchazref/10001", "1-000000042", "listing",
		"<html>Oakwood</html>", "Oakwood", 200)

	assert.Equal(t, "https://www.carehome.co.uk/carehome.cfm/searchazref/10001", page.URL)
	require.NotNil(t, page.LocationID)
	assert.Equal(t, "1-000000042", *page.LocationID)
	require.NotNil(t, page.PageKind)
	assert.Equal(t, "listing", *page.PageKind)
	require.NotNil(t, page.Platform)
	assert.Equal(t, "carehome.co.uk", *page.Platform)
	require.NotNil(t, page.HTTPStatus)
	assert.Equal(t, 200, *page.HTTPStatus)
}

func TestNewListingPage_OptionalFieldsOmitted(t *testing.T) {
	page := newListingPage("https://example.org/our-home", "", "", "<html/>", "", 200)

	assert.Nil(t, page.LocationID)
	assert.Nil(t, page.PageKind)
	assert.Nil(t, page.Platform, "unrecognized hosts carry no platform")
}

func TestDerefHelpers(t *testing.T) {
	s := "hello"
	assert.Equal(t, "hello", derefString(&s))
	assert.Equal(t, "", derefString(nil))

	n := 200
	assert.Equal(t, 200, derefInt(&n))
	assert.Equal(t, 0, derefInt(nil))
}
