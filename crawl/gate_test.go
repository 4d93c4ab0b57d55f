package crawl_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/locmirror"
	"github.com/fwojciec/locmirror/crawl"
	"github.com/fwojciec/locmirror/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Story: Bounded, Throttled Fetching
// Every request to the primary site waits its turn in a single queue, and
// transient failures are retried until a per-URL limit is reached.

func classifyAll(treatment locmirror.Treatment) *mock.OriginClassifier {
	return &mock.OriginClassifier{
		ClassifyFn: func(string) locmirror.Treatment { return treatment },
	}
}

func statusFetcher(status int, calls *atomic.Int32) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*locmirror.Response, error) {
			calls.Add(1)
			return &locmirror.Response{StatusCode: status, Body: []byte("body")}, nil
		},
	}
}

func TestGate_GatewayTimeoutIsRetriedUntilLimit(t *testing.T) {
	t.Parallel()

	// Given a server that always answers 504
	var calls atomic.Int32
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Unthrottled),
		Fetcher:    statusFetcher(http.StatusGatewayTimeout, &calls),
		RetryLimit: 5,
	}

	// When the gate fetches a target
	result := gate.Fetch(context.Background(), locmirror.Asset("http://cdn.example/a.png"))

	// Then it makes exactly RetryLimit attempts and gives up
	assert.Equal(t, locmirror.OutcomeExhausted, result.Outcome)
	assert.Equal(t, 5, result.Attempts)
	assert.Equal(t, int32(5), calls.Load())
	assert.Equal(t, locmirror.ETIMEOUT, locmirror.ErrorCode(result.Reason))
	assert.Nil(t, result.Body)
}

func TestGate_NotFoundIsFatalAfterOneAttempt(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Unthrottled),
		Fetcher:    statusFetcher(http.StatusNotFound, &calls),
	}

	result := gate.Fetch(context.Background(), locmirror.Page("http://site.example/missing/"))

	assert.Equal(t, locmirror.OutcomeFatal, result.Outcome)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, locmirror.ENOTFOUND, locmirror.ErrorCode(result.Reason))
}

func TestGate_ServerErrorIsFatal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Unthrottled),
		Fetcher:    statusFetcher(http.StatusInternalServerError, &calls),
	}

	result := gate.Fetch(context.Background(), locmirror.Asset("http://cdn.example/a.png"))

	assert.Equal(t, locmirror.OutcomeFatal, result.Outcome)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGate_ConnectionResetThenSuccess(t *testing.T) {
	t.Parallel()

	// Given a connection that resets once and then succeeds
	var calls atomic.Int32
	fetcher := &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*locmirror.Response, error) {
			if calls.Add(1) == 1 {
				return nil, locmirror.Errorf(locmirror.ECONNRESET, "connection reset by peer")
			}
			return &locmirror.Response{StatusCode: http.StatusOK, Body: []byte("<html></html>")}, nil
		},
	}
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Unthrottled),
		Fetcher:    fetcher,
	}

	// When the gate fetches
	result := gate.Fetch(context.Background(), locmirror.Page("http://site.example/"))

	// Then the second attempt's body is returned
	require.Equal(t, locmirror.OutcomeSuccess, result.Outcome)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "<html></html>", string(result.Body))
	assert.NoError(t, result.Reason)
}

func TestGate_NonRetryableTransportErrorIsFatal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fetcher := &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*locmirror.Response, error) {
			calls.Add(1)
			return nil, locmirror.Errorf(locmirror.EINTERNAL, "connection refused")
		},
	}
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Unthrottled),
		Fetcher:    fetcher,
	}

	result := gate.Fetch(context.Background(), locmirror.Asset("http://cdn.example/a.png"))

	assert.Equal(t, locmirror.OutcomeFatal, result.Outcome)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGate_RejectedOriginMakesNoRequest(t *testing.T) {
	t.Parallel()

	fetcher := &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*locmirror.Response, error) {
			t.Fatal("rejected target must not be fetched")
			return nil, nil
		},
	}
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Rejected),
		Fetcher:    fetcher,
	}

	result := gate.Fetch(context.Background(), locmirror.Asset("http://ads.example/track"))

	assert.Equal(t, locmirror.OutcomeOutOfPolicy, result.Outcome)
	assert.Equal(t, 0, result.Attempts)
}

func TestGate_ObserverSeesEveryAttempt(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fetcher := &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*locmirror.Response, error) {
			if calls.Add(1) < 3 {
				return &locmirror.Response{StatusCode: http.StatusGatewayTimeout}, nil
			}
			return &locmirror.Response{StatusCode: http.StatusOK, Body: []byte("ok")}, nil
		},
	}

	var mu sync.Mutex
	var seen []locmirror.Attempt
	observer := &mock.AttemptObserver{
		ObserveAttemptFn: func(a locmirror.Attempt) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, a)
		},
	}

	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Unthrottled),
		Fetcher:    fetcher,
		Observer:   observer,
	}

	result := gate.Fetch(context.Background(), locmirror.Asset("http://cdn.example/a.png"))
	require.Equal(t, locmirror.OutcomeSuccess, result.Outcome)

	require.Len(t, seen, 3)
	for i, a := range seen {
		assert.Equal(t, i+1, a.Number)
		assert.Equal(t, "http://cdn.example/a.png", a.Target.URL)
	}
	assert.Equal(t, locmirror.OutcomeRetryable, seen[0].Outcome)
	assert.Equal(t, http.StatusGatewayTimeout, seen[0].StatusCode)
	assert.Nil(t, seen[0].Body)
	assert.Equal(t, locmirror.OutcomeSuccess, seen[2].Outcome)
	assert.Equal(t, "ok", string(seen[2].Body))
}

func TestGate_FinalAttemptIsReportedExhausted(t *testing.T) {
	t.Parallel()

	// Given a server that always answers 504 and a limit of two
	var seen []locmirror.Outcome
	var calls atomic.Int32
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Unthrottled),
		Fetcher:    statusFetcher(http.StatusGatewayTimeout, &calls),
		Observer: &mock.AttemptObserver{
			ObserveAttemptFn: func(a locmirror.Attempt) { seen = append(seen, a.Outcome) },
		},
		RetryLimit: 2,
	}

	result := gate.Fetch(context.Background(), locmirror.Asset("http://cdn.example/a.png"))

	// Then the attempt that reached the limit is observed as exhausted
	require.Equal(t, locmirror.OutcomeExhausted, result.Outcome)
	assert.Equal(t, []locmirror.Outcome{locmirror.OutcomeRetryable, locmirror.OutcomeExhausted}, seen)
}

func TestGate_LimiterRefusalMakesNoRequest(t *testing.T) {
	t.Parallel()

	var observed atomic.Int32
	var calls atomic.Int32
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Throttled),
		Fetcher:    statusFetcher(http.StatusOK, &calls),
		Limiter: &mock.OriginLimiter{
			AcquireFn: func(ctx context.Context, origin string) (func(), error) {
				return nil, context.Canceled
			},
		},
		Observer: &mock.AttemptObserver{
			ObserveAttemptFn: func(locmirror.Attempt) { observed.Add(1) },
		},
		Origin: "site.example",
	}

	result := gate.Fetch(context.Background(), locmirror.Page("http://site.example/"))

	assert.Equal(t, locmirror.OutcomeFatal, result.Outcome)
	assert.ErrorIs(t, result.Reason, context.Canceled)
	assert.Zero(t, result.Attempts)
	assert.Zero(t, calls.Load())
	assert.Zero(t, observed.Load())
}

func TestGate_ThrottledRequestsAreSpaced(t *testing.T) {
	t.Parallel()

	// Given a throttled origin with a 60ms start interval
	const interval = 60 * time.Millisecond
	var mu sync.Mutex
	var starts []time.Time
	fetcher := &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*locmirror.Response, error) {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
			return &locmirror.Response{StatusCode: http.StatusOK}, nil
		},
	}
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Throttled),
		Fetcher:    fetcher,
		Limiter:    crawl.NewOriginLimiter(interval),
		Origin:     "site.example",
	}

	// When three pages are fetched concurrently
	var wg sync.WaitGroup
	for _, u := range []string{"http://site.example/1/", "http://site.example/2/", "http://site.example/3/"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gate.Fetch(context.Background(), locmirror.Page(u))
		}()
	}
	wg.Wait()

	// Then consecutive request starts are at least the interval apart
	require.Len(t, starts, 3)
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, gap, interval-10*time.Millisecond, "gap %d", i)
	}
}

func TestGate_UnthrottledRequestsBypassLimiter(t *testing.T) {
	t.Parallel()

	limiter := &mock.OriginLimiter{
		AcquireFn: func(ctx context.Context, origin string) (func(), error) {
			t.Fatal("unthrottled target must not enter the queue")
			return nil, nil
		},
	}
	var calls atomic.Int32
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Unthrottled),
		Fetcher:    statusFetcher(http.StatusOK, &calls),
		Limiter:    limiter,
		Origin:     "site.example",
	}

	for range 3 {
		result := gate.Fetch(context.Background(), locmirror.Asset("http://cdn.example/a.png"))
		assert.Equal(t, locmirror.OutcomeSuccess, result.Outcome)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestGate_ThrottledRequestsUseOriginKey(t *testing.T) {
	t.Parallel()

	var keys []string
	var released atomic.Int32
	limiter := &mock.OriginLimiter{
		AcquireFn: func(ctx context.Context, origin string) (func(), error) {
			keys = append(keys, origin)
			return func() { released.Add(1) }, nil
		},
	}
	var calls atomic.Int32
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Throttled),
		Fetcher:    statusFetcher(http.StatusOK, &calls),
		Limiter:    limiter,
		Origin:     "site.example",
	}

	gate.Fetch(context.Background(), locmirror.Page("http://www.site.example/"))

	assert.Equal(t, []string{"site.example"}, keys)
	assert.Equal(t, int32(1), released.Load())
}

func TestGate_TallyPersistsAcrossFetches(t *testing.T) {
	t.Parallel()

	// Given a shared tally and a URL that always times out
	tally := crawl.NewErrorTally()
	var calls atomic.Int32
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Unthrottled),
		Fetcher:    statusFetcher(http.StatusGatewayTimeout, &calls),
		RetryLimit: 3,
		Tally:      tally,
	}

	// When the URL is exhausted once as an asset
	first := gate.Fetch(context.Background(), locmirror.Asset("http://site.example/x"))
	require.Equal(t, locmirror.OutcomeExhausted, first.Outcome)
	assert.Equal(t, 3, tally.Count("http://site.example/x"))

	// Then fetching it again as a page gives up after a single attempt
	second := gate.Fetch(context.Background(), locmirror.Page("http://site.example/x"))
	assert.Equal(t, locmirror.OutcomeExhausted, second.Outcome)
	assert.Equal(t, 1, second.Attempts)
	assert.Equal(t, int32(4), calls.Load())
}

func TestGate_CanceledContextStopsRetrying(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	fetcher := &mock.Fetcher{
		FetchFn: func(context.Context, string) (*locmirror.Response, error) {
			calls.Add(1)
			cancel()
			return nil, locmirror.Errorf(locmirror.ETIMEOUT, "timeout")
		},
	}
	gate := &crawl.Gate{
		Classifier: classifyAll(locmirror.Unthrottled),
		Fetcher:    fetcher,
	}

	result := gate.Fetch(ctx, locmirror.Asset("http://cdn.example/a.png"))

	assert.Equal(t, locmirror.OutcomeFatal, result.Outcome)
	assert.Equal(t, int32(1), calls.Load())
	assert.ErrorIs(t, result.Reason, context.Canceled)
}
