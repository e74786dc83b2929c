package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://www.carehome.co.uk/carehome.cfm/searchazref/65432109876", PlatformCarehomeUK},
		{"https://carehome.co.uk/carehome.cfm/searchazref/10001234567", PlatformCarehomeUK},
		{"https://www.autumna.co.uk/care-homes/guildford/oakwood-manor/", PlatformAutumna},
		{"https://autumna.co.uk/elderly-care/surrey/", PlatformAutumna},
		{"https://lottie.org/care-homes/surrey/riverview-court/", PlatformLottie},
		{"https://www.lottie.org/care-services/", PlatformLottie},
		{"https://example.com/care-homes", PlatformUnknown},
		{"https://www.cqc.org.uk/location/1-100", PlatformUnknown},
		{"https://oakwoodmanor.co.uk/about-us", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestDetectPlatform_MalformedURL(t *testing.T) {
	assert.Equal(t, PlatformUnknown, DetectPlatform("://missing-scheme"))
}

func TestPlatformContentSelectors(t *testing.T) {
	carehome := PlatformContentSelectors(PlatformCarehomeUK)
	assert.Contains(t, carehome, ".profile-content")
	assert.Contains(t, carehome, "#profile")

	// Unknown platforms fall back to the generic listing selectors.
	generic := PlatformContentSelectors(PlatformUnknown)
	assert.Contains(t, generic, ".listing-detail")
	assert.Contains(t, generic, "main")
}

func TestPlatformNoiseSelectors(t *testing.T) {
	carehome := PlatformNoiseSelectors(PlatformCarehomeUK)
	assert.Contains(t, carehome, "form")
	assert.Contains(t, carehome, "#enquiry-form")
	assert.Contains(t, carehome, ".enquiry--wrapper")
	assert.Contains(t, carehome, ".similar-homes")

	unknown := PlatformNoiseSelectors(PlatformUnknown)
	assert.Contains(t, unknown, "form")
	assert.Contains(t, unknown, "#enquiry-form")
	assert.Contains(t, unknown, ".cookie-banner")
}

func TestPlatformNoiseSelectors_FreshSlice(t *testing.T) {
	first := PlatformNoiseSelectors(PlatformAutumna)
	first[0] = "mutated"

	second := PlatformNoiseSelectors(PlatformAutumna)
	assert.Equal(t, "form", second[0])
}
