package locmirror

// Kind distinguishes pages, which are parsed for links, from assets,
// which are saved as opaque bytes.
type Kind int

// Target kinds.
const (
	KindAsset Kind = iota
	KindPage
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindAsset:
		return "asset"
	default:
		return "unknown"
	}
}

// Target is a fully-qualified URL under consideration for fetch.
// Its identity is the URL string itself.
type Target struct {
	URL  string
	Kind Kind
}

// Page returns a page Target for the URL.
func Page(url string) Target {
	return Target{URL: url, Kind: KindPage}
}

// Asset returns an asset Target for the URL.
func Asset(url string) Target {
	return Target{URL: url, Kind: KindAsset}
}

// PathMapper derives the on-disk location of a Target.
// Implementations must be pure: no network or filesystem I/O.
type PathMapper interface {
	// AssetPath returns the file path an asset URL is saved to.
	AssetPath(url string) (string, error)

	// PagePath returns the entry-document path inside the directory
	// a page URL is saved to.
	PagePath(url string) (string, error)
}

// LocalPath returns the path the mapper assigns to the target's kind.
func LocalPath(m PathMapper, t Target) (string, error) {
	if t.Kind == KindPage {
		return m.PagePath(t.URL)
	}
	return m.AssetPath(t.URL)
}
