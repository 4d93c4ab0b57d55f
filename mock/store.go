package mock

import "github.com/fwojciec/locmirror"

var _ locmirror.Store = (*Store)(nil)

// Store is a mock implementation of locmirror.Store.
type Store struct {
	ExistsFn func(path string) (bool, error)
	ReadFn   func(path string) ([]byte, error)
	WriteFn  func(path string, body []byte) error
}

func (s *Store) Exists(path string) (bool, error) {
	return s.ExistsFn(path)
}

func (s *Store) Read(path string) ([]byte, error) {
	return s.ReadFn(path)
}

func (s *Store) Write(path string, body []byte) error {
	return s.WriteFn(path, body)
}

var _ locmirror.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of locmirror.LinkExtractor.
type LinkExtractor struct {
	ExtractFn func(pageURL string, html []byte) (*locmirror.Links, error)
}

func (e *LinkExtractor) Extract(pageURL string, html []byte) (*locmirror.Links, error) {
	return e.ExtractFn(pageURL, html)
}
