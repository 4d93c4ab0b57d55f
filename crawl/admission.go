package crawl

import (
	"sync"

	"github.com/fwojciec/locmirror"
	"github.com/fwojciec/locmirror/bloom"
)

var _ locmirror.Admitter = (*Registry)(nil)

// Registry records the LocalPaths scheduled during one run.
//
// The exact set alone decides admission. The Bloom filter is fed every
// path and only short-circuits the set lookup on a definite miss, so it
// never changes an answer. Paths are never removed.
type Registry struct {
	mu     sync.Mutex
	filter *bloom.Filter
	seen   map[string]struct{}
}

// NewRegistry creates a Registry sized for n expected paths with the given
// Bloom filter false positive rate.
func NewRegistry(n uint, fpRate float64) *Registry {
	return &Registry{
		filter: bloom.NewFilter(n, fpRate),
		seen:   make(map[string]struct{}),
	}
}

// TryAdmit records path and returns true the first time it is called for
// path. Every later call for the same path returns false.
func (r *Registry) TryAdmit(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.filter.TestAndAdd(path) {
		if _, ok := r.seen[path]; ok {
			return false
		}
	}
	r.seen[path] = struct{}{}
	return true
}

// Len returns the number of admitted paths.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
