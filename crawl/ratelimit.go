package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/locmirror"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultThrottleInterval is the minimum spacing between request starts
// against a throttled origin.
const DefaultThrottleInterval = 10 * time.Second

var _ locmirror.OriginLimiter = (*OriginLimiter)(nil)

// OriginLimiter serializes requests per origin. Each origin gets a weight-1
// semaphore, so at most one request is in flight, and a token bucket of
// size 1, so request starts are at least interval apart no matter how
// quickly earlier requests complete.
type OriginLimiter struct {
	mu       sync.Mutex
	origins  map[string]*originQueue
	interval time.Duration
}

type originQueue struct {
	inflight *semaphore.Weighted
	starts   *rate.Limiter
}

// NewOriginLimiter creates an OriginLimiter with the given spacing between
// request starts. An interval of zero only serializes requests.
func NewOriginLimiter(interval time.Duration) *OriginLimiter {
	return &OriginLimiter{
		origins:  make(map[string]*originQueue),
		interval: interval,
	}
}

// Acquire blocks until no other request to origin is in flight and the
// start interval has elapsed. The caller must call release when its
// request completes. Returns an error if the context is canceled first.
func (l *OriginLimiter) Acquire(ctx context.Context, origin string) (func(), error) {
	q := l.queue(origin)

	if err := q.inflight.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := q.starts.Wait(ctx); err != nil {
		q.inflight.Release(1)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() { q.inflight.Release(1) })
	}, nil
}

func (l *OriginLimiter) queue(origin string) *originQueue {
	l.mu.Lock()
	defer l.mu.Unlock()

	q, ok := l.origins[origin]
	if !ok {
		limit := rate.Inf
		if l.interval > 0 {
			limit = rate.Every(l.interval)
		}
		q = &originQueue{
			inflight: semaphore.NewWeighted(1),
			starts:   rate.NewLimiter(limit, 1),
		}
		l.origins[origin] = q
	}
	return q
}
