// Package fetch retrieves directory and provider web pages and reduces them
// to the text the enrichment extractors work on.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout bounds a single page fetch, body read included.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies the matcher to directory sites.
const DefaultUserAgent = "Mozilla/5.0 (compatible; CareMatch/1.0)"

// sharedClient is reused across fetches. Per-request deadlines come from the
// context, so the client itself carries no timeout.
var sharedClient = &http.Client{}

// Result is the outcome of fetching one page. Text stays empty until a
// caller runs extraction over HTML.
type Result struct {
	URL         string
	HTML        string
	Text        string
	ContentType string
	StatusCode  int
}

// Error describes a failed fetch, keeping the URL for the caller's report.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(urlStr, message string, cause error) *Error {
	return &Error{URL: urlStr, Message: message, Cause: cause}
}

// Options configures a fetch.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns the defaults used when callers pass nil.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// URL fetches one page over GET. A non-200 status is reported as an error,
// but the Result still carries the body; directory sites serve useful error
// pages.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, newError(urlStr, "invalid URL", err)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, newError(urlStr, "failed to create request", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := sharedClient.Do(req)
	if err != nil {
		return nil, newError(urlStr, "HTTP request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(urlStr, "failed to read response body", err)
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	if resp.StatusCode != http.StatusOK {
		return result, newError(urlStr, fmt.Sprintf("HTTP status %d", resp.StatusCode), nil)
	}

	return result, nil
}

// baseNoise strips the chrome every page shares before content selection.
const baseNoise = "nav, footer, header, script, style, noscript, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup"

// ExtractMainText reduces HTML to readable text. Noise selectors are removed
// first, then the first matching content selector wins; with no match the
// whole body is used.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(baseNoise).Remove()
	if extra := strings.Join(noiseSelectors, ", "); extra != "" {
		doc.Find(extra).Remove()
	}

	content := doc.Find("body")
	for _, selector := range contentSelectors {
		if match := doc.Find(selector); match.Length() > 0 {
			content = match.First()
			break
		}
	}

	return cleanWhitespace(content.Text()), nil
}

// DefaultTextSelectors covers generic pages with no recognized platform.
func DefaultTextSelectors() []string {
	return []string{
		"main",
		"article",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// ListingSelectors returns selectors tuned to care directory profile pages.
func ListingSelectors() []string {
	return []string{
		".profile-content",
		".home-profile",
		"#profile",
		".listing-detail",
		".care-home-profile",
		"[data-testid='profile']",
		"main",
		"article",
		".content",
		"#content",
	}
}

// HomeSiteSelectors returns selectors for a care home's own website (about
// us, our care, facilities pages).
func HomeSiteSelectors() []string {
	return []string{
		"main",
		"article",
		".about-content",
		".our-care",
		".facilities-content",
		".content",
		"#content",
	}
}

// cleanWhitespace trims every line and drops the blank ones.
func cleanWhitespace(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}
