package mock

import (
	"context"

	"github.com/fwojciec/locmirror"
)

var _ locmirror.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of locmirror.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*locmirror.Response, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*locmirror.Response, error) {
	return f.FetchFn(ctx, url)
}

var _ locmirror.FetchGate = (*FetchGate)(nil)

// FetchGate is a mock implementation of locmirror.FetchGate.
type FetchGate struct {
	FetchFn func(ctx context.Context, target locmirror.Target) locmirror.FetchResult
}

func (g *FetchGate) Fetch(ctx context.Context, target locmirror.Target) locmirror.FetchResult {
	return g.FetchFn(ctx, target)
}

var _ locmirror.AttemptObserver = (*AttemptObserver)(nil)

// AttemptObserver is a mock implementation of locmirror.AttemptObserver.
type AttemptObserver struct {
	ObserveAttemptFn func(a locmirror.Attempt)
}

func (o *AttemptObserver) ObserveAttempt(a locmirror.Attempt) {
	o.ObserveAttemptFn(a)
}
