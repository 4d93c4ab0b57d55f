package locmirror

// Links holds the fully-qualified references found in a page.
type Links struct {
	Assets []string
	Pages  []string
}

// LinkExtractor finds asset and page references in HTML.
type LinkExtractor interface {
	// Extract parses html and resolves every reference against pageURL.
	Extract(pageURL string, html []byte) (*Links, error)
}
