package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListingPage is one cached directory or provider web page, including the
// failure bookkeeping that drives retry backoff.
type ListingPage struct {
	ID         uuid.UUID `json:"id"`
	LocationID *string   `json:"location_id,omitempty"`
	URL        string    `json:"url"`
	Platform   *string   `json:"platform,omitempty"`
	PageKind   *string   `json:"page_kind,omitempty"`

	// RawHTML can run to megabytes, so it never serializes.
	RawHTML     *string `json:"-"`
	ParsedText  *string `json:"parsed_text,omitempty"`
	ContentHash *string `json:"content_hash,omitempty"`
	HTTPStatus  *int    `json:"http_status,omitempty"`

	FetchStatus        string     `json:"fetch_status"`
	ErrorMessage       *string    `json:"error_message,omitempty"`
	IsPermanentFailure bool       `json:"is_permanent_failure"`
	RetryCount         int        `json:"retry_count"`
	RetryAfter         *time.Time `json:"retry_after,omitempty"`

	FetchedAt      time.Time  `json:"fetched_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// What kind of page was cached.
const (
	PageKindListing = "listing" // directory profile page
	PageKindWebsite = "website" // the home's own site
)

// Fetch outcomes. Only success rows are served from the cache.
const (
	FetchStatusSuccess  = "success"
	FetchStatusError    = "error"     // generic error, may retry
	FetchStatusNotFound = "not_found" // 404/410, permanent
	FetchStatusTimeout  = "timeout"
	FetchStatusBlocked  = "blocked" // 403/429
)

// DefaultPageCacheTTL is how long a cached listing stays fresh. Directory
// profiles change slowly; review scores and fee tables move over weeks,
// not hours.
const DefaultPageCacheTTL = 7 * 24 * time.Hour

// IsPermanentHTTPStatus reports whether a status code means the URL will
// never succeed, so retrying is pointless.
func IsPermanentHTTPStatus(status int) bool {
	return status == http.StatusNotFound ||
		status == http.StatusGone ||
		status == http.StatusUnavailableForLegalReasons
}

// FetchStatusFromHTTP maps an HTTP status code to a fetch status.
func FetchStatusFromHTTP(status int) string {
	switch {
	case status >= 200 && status < 300:
		return FetchStatusSuccess
	case status == http.StatusNotFound, status == http.StatusGone:
		return FetchStatusNotFound
	case status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return FetchStatusBlocked
	default:
		return FetchStatusError
	}
}

// HashContent computes a SHA-256 hex digest of content for change detection.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// IsExpired reports whether the page's expiry has passed. Pages without an
// expiry never expire.
func (p *ListingPage) IsExpired() bool {
	return p.ExpiresAt != nil && time.Now().After(*p.ExpiresAt)
}

// IsFresh reports whether the page was fetched within maxAge.
func (p *ListingPage) IsFresh(maxAge time.Duration) bool {
	return time.Since(p.FetchedAt) < maxAge
}

const pageColumns = `id, location_id, url, platform, page_kind, raw_html, parsed_text, content_hash,
	http_status, fetch_status, error_message, is_permanent_failure, retry_count, retry_after,
	fetched_at, expires_at, last_accessed_at, created_at, updated_at`

func scanListingPage(row pgx.Row) (*ListingPage, error) {
	var p ListingPage
	err := row.Scan(&p.ID, &p.LocationID, &p.URL, &p.Platform, &p.PageKind, &p.RawHTML, &p.ParsedText,
		&p.ContentHash, &p.HTTPStatus, &p.FetchStatus, &p.ErrorMessage, &p.IsPermanentFailure,
		&p.RetryCount, &p.RetryAfter, &p.FetchedAt, &p.ExpiresAt, &p.LastAccessedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetListingPageByURL retrieves a cached page by URL, nil when the URL has
// never been fetched.
func (db *DB) GetListingPageByURL(ctx context.Context, pageURL string) (*ListingPage, error) {
	page, err := scanListingPage(db.pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM listing_pages WHERE url = $1`, pageURL))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing page: %w", err)
	}
	return page, nil
}

// GetFreshListingPage retrieves a page only if it is within maxAge and was
// fetched successfully. Stale or failed pages return nil so the caller
// re-fetches.
func (db *DB) GetFreshListingPage(ctx context.Context, pageURL string, maxAge time.Duration) (*ListingPage, error) {
	page, err := db.GetListingPageByURL(ctx, pageURL)
	if err != nil || page == nil {
		return nil, err
	}
	if page.FetchStatus != FetchStatusSuccess || !page.IsFresh(maxAge) {
		return nil, nil
	}

	_ = db.TouchListingPage(ctx, page.ID)
	return page, nil
}

// ShouldSkipURL reports whether a URL failed permanently or is still inside
// its retry backoff window. The reason for a permanent failure is whatever
// error message was recorded with it.
func (db *DB) ShouldSkipURL(ctx context.Context, pageURL string) (bool, string, error) {
	var (
		permanent  bool
		errMsg     *string
		retryAfter *time.Time
	)
	err := db.pool.QueryRow(ctx,
		`SELECT is_permanent_failure, error_message, retry_after FROM listing_pages WHERE url = $1`,
		pageURL,
	).Scan(&permanent, &errMsg, &retryAfter)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to query listing page: %w", err)
	}

	if permanent {
		reason := "permanent failure"
		if errMsg != nil && *errMsg != "" {
			reason = *errMsg
		}
		return true, reason, nil
	}
	if retryAfter != nil && time.Now().Before(*retryAfter) {
		return true, "retry backoff", nil
	}
	return false, "", nil
}

// normalize fills the derived columns before a write: the content hash, the
// default expiry, and the success status a plain fetch implies.
func (p *ListingPage) normalize() {
	if p.ContentHash == nil && p.RawHTML != nil {
		h := HashContent(*p.RawHTML)
		p.ContentHash = &h
	}
	if p.ExpiresAt == nil {
		t := time.Now().Add(DefaultPageCacheTTL)
		p.ExpiresAt = &t
	}
	if p.FetchStatus == "" {
		p.FetchStatus = FetchStatusSuccess
	}
}

// UpsertListingPage inserts or refreshes a cached page after a successful
// fetch. Refreshing clears any failure state accumulated for the URL. The
// page's ID and timestamps are filled in from the written row.
func (db *DB) UpsertListingPage(ctx context.Context, page *ListingPage) error {
	page.normalize()

	err := db.pool.QueryRow(ctx,
		`INSERT INTO listing_pages (location_id, url, platform, page_kind, raw_html, parsed_text, content_hash,
		                            http_status, fetch_status, error_message, is_permanent_failure,
		                            retry_count, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, NOW(), $12)
		 ON CONFLICT (url) DO UPDATE SET
		     location_id          = COALESCE(EXCLUDED.location_id, listing_pages.location_id),
		     platform             = COALESCE(EXCLUDED.platform, listing_pages.platform),
		     page_kind            = COALESCE(EXCLUDED.page_kind, listing_pages.page_kind),
		     raw_html             = EXCLUDED.raw_html,
		     parsed_text          = EXCLUDED.parsed_text,
		     content_hash         = EXCLUDED.content_hash,
		     http_status          = EXCLUDED.http_status,
		     fetch_status         = EXCLUDED.fetch_status,
		     error_message        = EXCLUDED.error_message,
		     is_permanent_failure = EXCLUDED.is_permanent_failure,
		     retry_count          = 0,
		     retry_after          = NULL,
		     fetched_at           = NOW(),
		     expires_at           = EXCLUDED.expires_at,
		     updated_at           = NOW()
		 RETURNING id, fetched_at, created_at, updated_at`,
		page.LocationID, page.URL, page.Platform, page.PageKind, page.RawHTML, page.ParsedText, page.ContentHash,
		page.HTTPStatus, page.FetchStatus, page.ErrorMessage, page.IsPermanentFailure, page.ExpiresAt,
	).Scan(&page.ID, &page.FetchedAt, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert listing page: %w", err)
	}
	return nil
}

// RecordFailedFetch records a failed fetch attempt with exponential backoff.
// Schedule: 1 min, 5 min, 25 min, then capped at 2 hours. Permanent
// failures get retry_after = NULL and are never retried.
func (db *DB) RecordFailedFetch(ctx context.Context, pageURL string, httpStatus int, errorMsg string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO listing_pages (url, http_status, fetch_status, error_message, is_permanent_failure,
		                            retry_count, retry_after, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, 1,
		         CASE WHEN $5 THEN NULL ELSE NOW() + INTERVAL '1 minute' END, NOW())
		 ON CONFLICT (url) DO UPDATE SET
		     http_status          = EXCLUDED.http_status,
		     fetch_status         = EXCLUDED.fetch_status,
		     error_message        = EXCLUDED.error_message,
		     is_permanent_failure = listing_pages.is_permanent_failure OR EXCLUDED.is_permanent_failure,
		     retry_count          = listing_pages.retry_count + 1,
		     retry_after          = CASE
		         WHEN listing_pages.is_permanent_failure OR EXCLUDED.is_permanent_failure THEN NULL
		         ELSE NOW() + LEAST(INTERVAL '1 minute' * POWER(5, LEAST(listing_pages.retry_count, 3)),
		                            INTERVAL '2 hours')
		     END,
		     fetched_at           = NOW(),
		     updated_at           = NOW()`,
		pageURL, httpStatus, FetchStatusFromHTTP(httpStatus), errorMsg, IsPermanentHTTPStatus(httpStatus),
	)
	if err != nil {
		return fmt.Errorf("failed to record failed fetch: %w", err)
	}
	return nil
}

// TouchListingPage bumps last_accessed_at so cache eviction can spare pages
// that are still in use.
func (db *DB) TouchListingPage(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE listing_pages SET last_accessed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch listing page: %w", err)
	}
	return nil
}

// DeleteExpiredListingPages removes pages past their expires_at and returns
// how many were pruned.
func (db *DB) DeleteExpiredListingPages(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM listing_pages WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired listing pages: %w", err)
	}
	return tag.RowsAffected(), nil
}
