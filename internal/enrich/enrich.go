// Package enrich augments regulator candidate records with directory
// listing data: review figures, published weekly fees, amenity checklists
// and care attributes the regulator feed never carries. Output records go
// back through fusion, which owns matching and conflict resolution.
package enrich

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mwhitfield/carematch/internal/db"
	"github.com/mwhitfield/carematch/internal/fetch"
	"github.com/mwhitfield/carematch/internal/llm"
	"github.com/mwhitfield/carematch/internal/types"
)

// requestDelay spaces directory requests so a batch run stays polite.
const requestDelay = 500 * time.Millisecond

// minListingText is the minimum extracted text length worth sending to
// the LLM; anything shorter is boilerplate.
const minListingText = 200

// Options configures an enrichment run.
type Options struct {
	SearchAPIKey string
	SearchCX     string
	LLMAPIKey    string
	UseBrowser   bool
	Verbose      bool

	// Store enables the listing page cache when set. Nil means every
	// page is fetched fresh.
	Store *db.DB
	// RefreshCache forces fresh fetches; results are still cached.
	RefreshCache bool
}

// Target names one home to enrich. LocationID is echoed into the output
// record so fusion can match it back without soft matching.
type Target struct {
	LocationID string
	Name       string
	Postcode   string
}

// SkippedHome records one home the run could not enrich and why.
type SkippedHome struct {
	LocationID string `json:"location_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

// Report summarises one enrichment run.
type Report struct {
	Attempted int           `json:"attempted"`
	Enriched  int           `json:"enriched"`
	Skipped   []SkippedHome `json:"skipped,omitempty"`
}

// Enricher finds and reads directory listings for care homes.
type Enricher struct {
	discoverer *Discoverer
	client     llm.Client
	fetcher    *fetch.CachedFetcher
	opts       Options
}

// New creates an Enricher. Both the search and LLM credentials are
// required: discovery without extraction produces nothing usable.
func New(ctx context.Context, opts Options) (*Enricher, error) {
	if opts.SearchAPIKey == "" || opts.SearchCX == "" {
		return nil, fmt.Errorf("search API key and engine ID are required")
	}
	if opts.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}

	discoverer, err := NewDiscoverer(ctx, opts.SearchAPIKey, opts.SearchCX)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), opts.LLMAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	fetcher := fetch.NewCachedFetcher(opts.Store, &fetch.CachedFetcherConfig{
		SkipCache: opts.RefreshCache,
	})

	return &Enricher{
		discoverer: discoverer,
		client:     client,
		fetcher:    fetcher,
		opts:       opts,
	}, nil
}

// Close releases the underlying LLM client.
func (e *Enricher) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Home enriches a single care home from its directory listing. The
// structured parse runs first; the LLM pass fills in what the page
// markup does not expose. Structured values win collisions.
func (e *Enricher) Home(ctx context.Context, target Target) (types.RawRecord, error) {
	listingURL, err := e.discoverer.FindListing(ctx, target.Name, target.Postcode)
	if err != nil {
		return nil, fmt.Errorf("discovering listing for %s: %w", target.Name, err)
	}

	if e.opts.Verbose {
		log.Printf("[ENRICH] %s: listing %s", target.Name, listingURL)
	}

	html, err := e.fetchPage(ctx, listingURL, target.LocationID, db.PageKindListing)
	if err != nil {
		return nil, fmt.Errorf("fetching listing: %w", err)
	}

	platform := fetch.DetectPlatform(listingURL)
	rec, err := ParseListing(html)
	if err != nil {
		rec = types.RawRecord{}
	}

	text, err := fetch.ExtractMainText(html, fetch.PlatformContentSelectors(platform), fetch.PlatformNoiseSelectors(platform)...)
	if err == nil && len(text) >= minListingText {
		attrs, err := ExtractAttributes(ctx, e.client, text)
		if err != nil {
			if e.opts.Verbose {
				log.Printf("[ENRICH] %s: attribute extraction failed: %v", target.Name, err)
			}
		} else {
			rec = mergeRaw(rec, attrs)
		}
	}

	// Echo identity so fusion can match the record back.
	if target.LocationID != "" {
		rec["location_id"] = target.LocationID
	}
	if _, ok := rec.String("name"); !ok {
		rec["name"] = target.Name
	}
	if _, ok := rec.String("postcode"); !ok && target.Postcode != "" {
		rec["postcode"] = target.Postcode
	}

	return rec, nil
}

// HomeWebsite enriches a home from its own website, which tends to
// describe lifestyle and amenities the directory checklist misses.
func (e *Enricher) HomeWebsite(ctx context.Context, target Target) (types.RawRecord, error) {
	websiteURL, err := e.discoverer.FindWebsite(ctx, target.Name, target.Postcode)
	if err != nil {
		return nil, fmt.Errorf("discovering website for %s: %w", target.Name, err)
	}

	if e.opts.Verbose {
		log.Printf("[ENRICH] %s: website %s", target.Name, websiteURL)
	}

	html, err := e.fetchPage(ctx, websiteURL, target.LocationID, db.PageKindWebsite)
	if err != nil {
		return nil, fmt.Errorf("fetching website: %w", err)
	}

	text, err := fetch.ExtractMainText(html, fetch.HomeSiteSelectors())
	if err != nil {
		return nil, fmt.Errorf("extracting website text: %w", err)
	}
	if len(text) < minListingText {
		return nil, fmt.Errorf("website has too little readable content (%d chars)", len(text))
	}

	rec, err := ExtractNarrative(ctx, e.client, text)
	if err != nil {
		return nil, err
	}

	if target.LocationID != "" {
		rec["location_id"] = target.LocationID
	}
	if _, ok := rec.String("name"); !ok {
		rec["name"] = target.Name
	}

	return rec, nil
}

// Batch enriches every target in order with a polite delay between
// requests. Failures skip the home and are reported, never fatal.
func (e *Enricher) Batch(ctx context.Context, targets []Target) ([]types.RawRecord, *Report, error) {
	report := &Report{Attempted: len(targets)}
	out := make([]types.RawRecord, 0, len(targets))

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return out, report, err
		}
		if i > 0 {
			time.Sleep(requestDelay)
		}

		rec, err := e.Home(ctx, target)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedHome{
				LocationID: target.LocationID,
				Name:       target.Name,
				Reason:     err.Error(),
			})
			continue
		}

		out = append(out, rec)
		report.Enriched++
	}

	if e.opts.Verbose {
		log.Printf("[ENRICH] Complete: enriched %d of %d homes, skipped %d",
			report.Enriched, report.Attempted, len(report.Skipped))
	}

	return out, report, nil
}

func (e *Enricher) fetchPage(ctx context.Context, pageURL, locationID, kind string) (string, error) {
	result, err := e.fetcher.FetchForLocation(ctx, pageURL, locationID, kind)
	if err != nil {
		return "", err
	}
	if result.FromCache && e.opts.Verbose {
		log.Printf("[ENRICH] %s: served from page cache", pageURL)
	}

	// Check if we need browser fallback. A cached render passes this
	// check, so the browser only runs once per listing.
	platform := fetch.DetectPlatform(pageURL)
	text, _ := fetch.ExtractMainText(result.HTML, fetch.PlatformContentSelectors(platform))
	if e.opts.UseBrowser && fetch.ShouldUseBrowser(text) {
		html, err := fetch.BrowserSimple(ctx, pageURL, e.opts.Verbose)
		if err != nil {
			return "", err
		}
		e.fetcher.StoreRendered(ctx, pageURL, locationID, kind, html)
		return html, nil
	}

	return result.HTML, nil
}

// mergeRaw folds LLM-extracted attributes behind the structured parse.
// List fields union; everything else the structured parse wins.
func mergeRaw(structured, extracted types.RawRecord) types.RawRecord {
	out := make(types.RawRecord, len(structured)+len(extracted))
	for k, v := range extracted {
		out[k] = v
	}
	for k, v := range structured {
		if merged, ok := unionLists(v, out[k]); ok {
			out[k] = merged
			continue
		}
		out[k] = v
	}
	return out
}

// unionLists merges two []string values keeping the leading order.
func unionLists(lead, trail any) ([]string, bool) {
	ls, ok := lead.([]string)
	if !ok {
		return nil, false
	}
	ts, _ := trail.([]string)

	seen := make(map[string]bool, len(ls)+len(ts))
	out := make([]string, 0, len(ls)+len(ts))
	for _, s := range ls {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range ts {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, true
}
