package crawl

import "sync"

// ErrorTally counts retryable failures per Target URL for one run.
// Entries are created on first failure and never cleared.
// It is safe for concurrent use by multiple goroutines.
type ErrorTally struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewErrorTally creates an empty ErrorTally.
func NewErrorTally() *ErrorTally {
	return &ErrorTally{counts: make(map[string]int)}
}

// Fail records a retryable failure for url and returns the new count.
func (t *ErrorTally) Fail(url string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[url]++
	return t.counts[url]
}

// Count returns the failures recorded for url.
func (t *ErrorTally) Count(url string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[url]
}
