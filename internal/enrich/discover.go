// Package enrich - discover.go finds directory listings and home websites.
package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/mwhitfield/carematch/internal/fetch"
)

// Discoverer handles external listing and website discovery
type Discoverer struct {
	svc *customsearch.Service
	cx  string
}

// NewDiscoverer creates a new Discoverer instance
func NewDiscoverer(ctx context.Context, apiKey string, cx string) (*Discoverer, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &Discoverer{
		svc: svc,
		cx:  cx,
	}, nil
}

// FindListing attempts to find the home's directory listing URL. The
// known directories are queried in order; the first result on a
// recognised platform wins.
func (d *Discoverer) FindListing(ctx context.Context, name, postcode string) (string, error) {
	queries := []string{
		fmt.Sprintf("site:carehome.co.uk %s %s", name, postcode),
		fmt.Sprintf("site:autumna.co.uk %s %s", name, postcode),
		fmt.Sprintf("%s care home %s reviews", name, postcode),
	}

	for _, q := range queries {
		resp, err := d.svc.Cse.List().Cx(d.cx).Q(q).Num(3).Context(ctx).Do()
		if err != nil {
			continue // Skip failed queries gracefully
		}

		for _, item := range resp.Items {
			if fetch.DetectPlatform(item.Link) != fetch.PlatformUnknown {
				return item.Link, nil
			}
		}
	}

	return "", fmt.Errorf("no directory listing found for %s", name)
}

// FindWebsite attempts to find the home's own website URL, skipping
// directories and aggregators that outrank it in search results.
func (d *Discoverer) FindWebsite(ctx context.Context, name, postcode string) (string, error) {
	query := fmt.Sprintf("%s care home %s official website", name, postcode)
	resp, err := d.svc.Cse.List().Cx(d.cx).Q(query).Num(5).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}

	for _, item := range resp.Items {
		if fetch.DetectPlatform(item.Link) != fetch.PlatformUnknown {
			continue
		}
		if isAggregator(item.Link) {
			continue
		}
		return item.Link, nil
	}

	return "", fmt.Errorf("no website found for %s", name)
}

// aggregatorHosts are domains that routinely outrank a home's own
// website in search results but never are one.
var aggregatorHosts = []string{
	"carehome.co.uk",
	"autumna.co.uk",
	"lottie.org",
	"cqc.org.uk",
	"nhs.uk",
	"carehomes.net",
	"trustpilot.com",
	"facebook.com",
	"yell.com",
	"google.com",
	"wikipedia.org",
}

func isAggregator(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return true
	}

	host := strings.ToLower(parsed.Host)
	for _, agg := range aggregatorHosts {
		if host == agg || strings.HasSuffix(host, "."+agg) {
			return true
		}
	}
	return false
}
