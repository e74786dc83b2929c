package fetch

import (
	"net/url"
	"strings"
)

// Platform identifies which care directory served a page. Each known
// directory gets tuned content and noise selectors.
type Platform string

const (
	PlatformCarehomeUK Platform = "carehome.co.uk"
	PlatformAutumna    Platform = "autumna"
	PlatformLottie     Platform = "lottie"
	PlatformUnknown    Platform = "unknown"
)

var platformHosts = []struct {
	needle   string
	platform Platform
}{
	{"carehome.co.uk", PlatformCarehomeUK},
	{"autumna.co.uk", PlatformAutumna},
	{"lottie.org", PlatformLottie},
}

// DetectPlatform maps a listing URL to its directory platform by host.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)
	for _, ph := range platformHosts {
		if strings.Contains(host, ph.needle) {
			return ph.platform
		}
	}
	return PlatformUnknown
}

// PlatformContentSelectors returns the selectors to try, most specific
// first, for pulling the profile body out of a directory page. Unknown
// platforms fall back to the generic listing selectors.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformCarehomeUK:
		return []string{
			".profile-content",
			"#profile",
			".home-profile-main",
			"#content",
			".profile-container",
		}
	case PlatformAutumna:
		return []string{
			".provider-profile",
			".profile-details",
			".listing-detail",
			".content",
		}
	case PlatformLottie:
		return []string{
			"[data-testid='care-home-profile']",
			".care-home-detail",
			".home-overview",
			"main",
		}
	default:
		return ListingSelectors()
	}
}

// commonNoise is stripped from every directory page regardless of platform:
// enquiry and brochure forms, review widgets, share buttons, cookie banners.
// Plain navigation chrome is already handled by the base noise selectors.
var commonNoise = []string{
	"form",
	"#enquiry-form",
	".enquiry-form",
	".enquiry--container",
	".brochure-request",
	"[data-testid='enquiry-form']",

	".submit-review",
	".review-form",
	".write-a-review",
	"[data-testid='review-form']",

	".social-share",
	".share-buttons",
	".social-links",

	".cookie-banner",
	".cookie-consent",
	".gdpr-notice",
}

// PlatformNoiseSelectors returns the noise selectors for a platform, the
// shared set plus any platform extras. The result is a fresh slice.
func PlatformNoiseSelectors(platform Platform) []string {
	var extra []string
	switch platform {
	case PlatformCarehomeUK:
		extra = []string{
			".enquiry--wrapper",
			".awards-banner",
			".similar-homes",
			"#nearby-homes-section",
			".post-enquiry",
		}
	case PlatformAutumna:
		extra = []string{
			".shortlist-section",
			".autumna-enquiry-form",
			".listing-cta",
		}
	case PlatformLottie:
		extra = []string{
			"[data-testid='request-callback']",
			".callback-section",
			".comparison-tray",
		}
	}

	out := make([]string, 0, len(commonNoise)+len(extra))
	out = append(out, commonNoise...)
	return append(out, extra...)
}
