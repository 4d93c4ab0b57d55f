// Package fs provides the filesystem side of a mirror: mapping URLs to
// local paths and storing fetched bytes.
package fs

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fwojciec/locmirror"
)

// IndexFile is the entry document saved inside every page directory.
const IndexFile = "index.html"

// Ensure Mapper implements locmirror.PathMapper at compile time.
var _ locmirror.PathMapper = (*Mapper)(nil)

var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// querySeparators keeps a query inside the last path element.
var querySeparators = strings.NewReplacer("/", "%2F", `\`, "%5C")

// Mapper converts URLs to paths under an output root.
// Example: https://example.com/img/a.png → <root>/example.com/img/a.png
//
// The path part is cleaned, so URLs that differ only by a trailing slash,
// a repeated slash or a dot segment share a LocalPath, and so do a page
// x/ and the asset x/index.html. Such URLs name one file on disk and are
// fetched once per run. A query never creates directories or dot
// segments; its separators are percent-encoded.
type Mapper struct {
	root string
}

// NewMapper creates a Mapper rooted at root.
func NewMapper(root string) *Mapper {
	return &Mapper{root: filepath.Clean(root)}
}

// Root returns the output root.
func (m *Mapper) Root() string {
	return m.root
}

// AssetPath strips the scheme and joins host, path, and query onto the root.
// The fragment, if any, is dropped since it never reaches the server.
func (m *Mapper) AssetPath(rawURL string) (string, error) {
	rest := schemePrefix.ReplaceAllString(rawURL, "")
	if rest == rawURL {
		return "", locmirror.Errorf(locmirror.EINVALID, "url %q has no scheme", rawURL)
	}
	if i := strings.IndexByte(rest, '#'); i != -1 {
		rest = rest[:i]
	}
	if rest == "" || strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "?") {
		return "", locmirror.Errorf(locmirror.EINVALID, "url %q has no host", rawURL)
	}
	if path, query, ok := strings.Cut(rest, "?"); ok {
		rest = path + "?" + querySeparators.Replace(query)
	}

	p := filepath.Join(m.root, filepath.FromSlash(rest))
	if p == m.root || !within(m.root, p) {
		return "", locmirror.Errorf(locmirror.EINVALID, "url %q escapes output root", rawURL)
	}
	return p, nil
}

// PagePath returns the IndexFile inside the directory for the URL.
func (m *Mapper) PagePath(rawURL string) (string, error) {
	dir, err := m.AssetPath(rawURL)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, IndexFile), nil
}

// within reports whether p is root or lies beneath it.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
