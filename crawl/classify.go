package crawl

import (
	"net/url"
	"strings"

	"github.com/fwojciec/locmirror"
)

// Compile-time interface verification.
var _ locmirror.OriginClassifier = (*SuffixClassifier)(nil)

// SuffixClassifier assigns treatments by hostname suffix.
// Asset suffixes are checked before the throttled suffix, so a host
// matching both is Unthrottled.
type SuffixClassifier struct {
	// AssetOrigins are trusted hosts fetched without throttling.
	AssetOrigins []string

	// ThrottleOrigin is the primary site, fetched through the shared queue.
	ThrottleOrigin string
}

// NewSuffixClassifier creates a classifier for a throttled origin and any
// number of trusted asset origins.
func NewSuffixClassifier(throttleOrigin string, assetOrigins ...string) *SuffixClassifier {
	return &SuffixClassifier{
		AssetOrigins:   assetOrigins,
		ThrottleOrigin: throttleOrigin,
	}
}

// Classify returns the treatment for rawURL.
func (c *SuffixClassifier) Classify(rawURL string) locmirror.Treatment {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return locmirror.Rejected
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return locmirror.Rejected
	}

	for _, origin := range c.AssetOrigins {
		if matchesSuffix(host, origin) {
			return locmirror.Unthrottled
		}
	}
	if matchesSuffix(host, c.ThrottleOrigin) {
		return locmirror.Throttled
	}
	return locmirror.Rejected
}

// matchesSuffix reports whether host is suffix or a subdomain of it.
func matchesSuffix(host, suffix string) bool {
	suffix = strings.ToLower(strings.TrimPrefix(suffix, "."))
	if suffix == "" {
		return false
	}
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}
