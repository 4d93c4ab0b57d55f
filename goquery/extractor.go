// Package goquery extracts asset and page references from HTML
// using github.com/PuerkitoBio/goquery.
package goquery

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/locmirror"
	"golang.org/x/net/html"
)

var _ locmirror.LinkExtractor = (*LinkExtractor)(nil)

// SelectorConfig names the elements and attribute that hold one kind of reference.
type SelectorConfig struct {
	Selector string
	Attr     string
	Kind     locmirror.Kind
}

// DefaultSelectors collects stylesheet and icon links from the head,
// scripts and body images as assets, and body anchors as pages.
var DefaultSelectors = []SelectorConfig{
	{Selector: "head link[href]", Attr: "href", Kind: locmirror.KindAsset},
	{Selector: "script[src]", Attr: "src", Kind: locmirror.KindAsset},
	{Selector: "body img[src]", Attr: "src", Kind: locmirror.KindAsset},
	{Selector: "body a[href]", Attr: "href", Kind: locmirror.KindPage},
}

// LinkExtractor resolves references found by a set of selectors against
// the URL of the page they appear on.
type LinkExtractor struct {
	Selectors []SelectorConfig
}

// NewLinkExtractor creates a LinkExtractor using DefaultSelectors.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{Selectors: DefaultSelectors}
}

// Extract returns the absolute http(s) references in body, split by kind.
// Values are resolved against pageURL with fragments removed, and each URL
// is reported once per kind in document order.
func (e *LinkExtractor) Extract(pageURL string, body []byte) (*locmirror.Links, error) {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return nil, locmirror.Errorf(locmirror.EINVALID, "invalid page URL: %q", pageURL)
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, locmirror.Errorf(locmirror.EINVALID, "failed to parse HTML: %v", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	links := &locmirror.Links{}
	seen := map[locmirror.Kind]map[string]bool{
		locmirror.KindAsset: {},
		locmirror.KindPage:  {},
	}

	for _, config := range e.Selectors {
		doc.Find(config.Selector).Each(func(_ int, sel *goquery.Selection) {
			value, ok := sel.Attr(config.Attr)
			if !ok || strings.TrimSpace(value) == "" {
				return
			}

			// Skip non-HTTP links (javascript:, mailto:, etc.)
			if isNonHTTPLink(value) {
				return
			}

			resolved := resolveURL(base, value)
			if resolved == "" || seen[config.Kind][resolved] {
				return
			}
			seen[config.Kind][resolved] = true

			if config.Kind == locmirror.KindPage {
				links.Pages = append(links.Pages, resolved)
			} else {
				links.Assets = append(links.Assets, resolved)
			}
		})
	}

	return links, nil
}

// resolveURL resolves href against base and strips the fragment.
// Returns empty string if href cannot be parsed or does not resolve to
// an http or https URL with a host.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if resolved.Host == "" {
		return ""
	}
	return resolved.String()
}

// isNonHTTPLink checks if a reference uses a scheme that is never fetched.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
