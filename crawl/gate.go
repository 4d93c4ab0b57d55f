package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/locmirror"
)

var _ locmirror.FetchGate = (*Gate)(nil)

// Gate is the retrying, rate-limited fetch primitive of a mirror run.
// Rejected origins produce no I/O. Unthrottled origins are fetched
// immediately and concurrently. Throttled origins go through Limiter
// under the single queue key Origin.
//
// Retryable failures are counted in Tally per Target URL and the whole
// fetch is re-run, re-entering classification and the limiter. There is
// no backoff; spacing comes only from the limiter.
type Gate struct {
	Classifier locmirror.OriginClassifier
	Fetcher    locmirror.Fetcher
	Limiter    locmirror.OriginLimiter
	Observer   locmirror.AttemptObserver

	// Origin is the limiter key shared by every Throttled request.
	Origin string

	// RetryLimit is the failure count at which a Target is given up.
	// Defaults to DefaultRetryLimit.
	RetryLimit int

	// Tally holds retry counts. A fresh tally is created if nil.
	Tally *ErrorTally

	once sync.Once
}

// Fetch fetches target and returns its terminal outcome.
// Failures are reported as outcomes, never as errors.
func (g *Gate) Fetch(ctx context.Context, target locmirror.Target) locmirror.FetchResult {
	g.once.Do(func() {
		if g.Tally == nil {
			g.Tally = NewErrorTally()
		}
	})

	limit := g.RetryLimit
	if limit <= 0 {
		limit = DefaultRetryLimit
	}

	for attempt := 1; ; attempt++ {
		treatment := g.Classifier.Classify(target.URL)
		if treatment == locmirror.Rejected {
			return locmirror.FetchResult{Outcome: locmirror.OutcomeOutOfPolicy, Attempts: attempt - 1}
		}

		a, err := g.attempt(ctx, target, treatment, attempt)
		if err != nil {
			return locmirror.FetchResult{Outcome: locmirror.OutcomeFatal, Reason: err, Attempts: attempt - 1}
		}
		if a.Outcome == locmirror.OutcomeRetryable && g.Tally.Fail(target.URL) >= limit {
			a.Outcome = locmirror.OutcomeExhausted
		}
		if g.Observer != nil {
			g.Observer.ObserveAttempt(a)
		}

		switch a.Outcome {
		case locmirror.OutcomeSuccess:
			return locmirror.FetchResult{Outcome: a.Outcome, Body: a.Body, Attempts: attempt}
		case locmirror.OutcomeRetryable:
			// Retrying under a canceled context would spin until the limit
			if err := ctx.Err(); err != nil {
				return locmirror.FetchResult{Outcome: locmirror.OutcomeFatal, Reason: err, Attempts: attempt}
			}
		default:
			return locmirror.FetchResult{Outcome: a.Outcome, Reason: a.Err, Attempts: attempt}
		}
	}
}

// attempt performs one request. The error is non-nil only when the
// limiter refused entry and no request was made.
func (g *Gate) attempt(ctx context.Context, target locmirror.Target, treatment locmirror.Treatment, n int) (locmirror.Attempt, error) {
	var release func()
	if treatment == locmirror.Throttled && g.Limiter != nil {
		r, err := g.Limiter.Acquire(ctx, g.Origin)
		if err != nil {
			return locmirror.Attempt{}, err
		}
		release = r
	}

	started := time.Now()
	resp, err := g.Fetcher.Fetch(ctx, target.URL)
	duration := time.Since(started)
	if release != nil {
		release()
	}

	outcome, reason := classifyAttempt(resp, err)
	a := locmirror.Attempt{
		Target:   target,
		Number:   n,
		Outcome:  outcome,
		Err:      reason,
		Started:  started,
		Duration: duration,
	}
	if resp != nil {
		a.StatusCode = resp.StatusCode
	}
	if outcome == locmirror.OutcomeSuccess {
		a.Body = resp.Body
	}
	return a, nil
}
