package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/carematch/internal/db"
)

// CachedFetcher wraps URL fetching with a PostgreSQL-backed page cache so
// repeat enrichment runs stop hammering the directories.
type CachedFetcher struct {
	db        *db.DB
	options   *Options
	cacheTTL  time.Duration
	skipCache bool // force fresh fetches; results are still cached
}

// CachedFetcherConfig tunes the cache layer. Zero values fall back to the
// defaults, so callers only set what they care about.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *Options
}

// DefaultCachedFetcherConfig pairs the week-long page TTL with the stock
// fetch options.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: db.DefaultPageCacheTTL,
		Options:  DefaultOptions(),
	}
}

// NewCachedFetcher creates a cached fetcher. A nil database disables
// caching entirely; every call fetches fresh.
func NewCachedFetcher(database *db.DB, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}

	f := &CachedFetcher{
		db:        database,
		options:   config.Options,
		cacheTTL:  config.CacheTTL,
		skipCache: config.SkipCache,
	}
	if f.options == nil {
		f.options = DefaultOptions()
	}
	if f.cacheTTL == 0 {
		f.cacheTTL = db.DefaultPageCacheTTL
	}
	return f
}

// CachedResult is a fetch Result plus where it came from. PageID is set
// whenever the page landed in, or was served from, the store.
type CachedResult struct {
	*Result
	FromCache bool
	PageID    uuid.UUID
}

// Fetch retrieves a URL through the cache without tying it to a location.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	return f.FetchForLocation(ctx, urlStr, "", "")
}

// FetchForLocation retrieves a URL, consulting the cache first. locationID
// ties the cached page to a regulator location and kind is one of the
// db.PageKind values; both may be empty.
func (f *CachedFetcher) FetchForLocation(ctx context.Context, urlStr, locationID, kind string) (*CachedResult, error) {
	if f.db != nil && !f.skipCache {
		hit, err := f.lookup(ctx, urlStr)
		if err != nil || hit != nil {
			return hit, err
		}
	}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		if f.db != nil {
			status := 0
			if result != nil {
				status = result.StatusCode
			}
			_ = f.db.RecordFailedFetch(ctx, urlStr, status, err.Error())
		}
		return nil, err
	}

	// Parse once, platform-aware, so later cache hits skip goquery too.
	result.Text = platformText(urlStr, result.HTML)

	out := &CachedResult{Result: result}
	if f.db != nil {
		page := newListingPage(urlStr, locationID, kind, result.HTML, result.Text, result.StatusCode)
		// Best effort; the fetch itself succeeded.
		if err := f.db.UpsertListingPage(ctx, page); err == nil {
			out.PageID = page.ID
		}
	}
	return out, nil
}

// lookup consults the failure backoff list and then the page cache. Both
// returns nil means a fresh fetch is needed.
func (f *CachedFetcher) lookup(ctx context.Context, urlStr string) (*CachedResult, error) {
	skip, reason, err := f.db.ShouldSkipURL(ctx, urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to check skip status: %w", err)
	}
	if skip {
		return nil, &Error{URL: urlStr, Message: "URL skipped: " + reason}
	}

	page, err := f.db.GetFreshListingPage(ctx, urlStr, f.cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to check cache: %w", err)
	}
	if page == nil {
		return nil, nil
	}

	return &CachedResult{
		Result: &Result{
			URL:        page.URL,
			HTML:       derefString(page.RawHTML),
			Text:       derefString(page.ParsedText),
			StatusCode: derefInt(page.HTTPStatus),
		},
		FromCache: true,
		PageID:    page.ID,
	}, nil
}

// StoreRendered caches browser-rendered HTML for a URL. Rendered pages are
// the expensive ones; keeping them lets the next run skip the browser
// entirely.
func (f *CachedFetcher) StoreRendered(ctx context.Context, urlStr, locationID, kind, html string) {
	if f.db == nil {
		return
	}
	page := newListingPage(urlStr, locationID, kind, html, platformText(urlStr, html), 200)
	_ = f.db.UpsertListingPage(ctx, page)
}

// platformText strips a page down to profile text using the selectors tuned
// for whichever directory served it.
func platformText(urlStr, html string) string {
	platform := DetectPlatform(urlStr)
	text, _ := ExtractMainText(html, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...)
	return text
}

func newListingPage(urlStr, locationID, kind, html, text string, status int) *db.ListingPage {
	page := &db.ListingPage{
		URL:         urlStr,
		RawHTML:     &html,
		ParsedText:  &text,
		HTTPStatus:  &status,
		FetchStatus: db.FetchStatusSuccess,
	}
	if locationID != "" {
		page.LocationID = &locationID
	}
	if kind != "" {
		page.PageKind = &kind
	}
	if platform := DetectPlatform(urlStr); platform != PlatformUnknown {
		p := string(platform)
		page.Platform = &p
	}
	return page
}

// The page store keeps nullable columns as pointers.

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
