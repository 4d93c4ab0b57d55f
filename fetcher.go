package locmirror

import (
	"context"
	"time"
)

// Response is the raw result of an HTTP GET that reached the server.
type Response struct {
	StatusCode int
	Body       []byte
}

// Fetcher issues a single HTTP GET.
type Fetcher interface {
	// Fetch returns the response for any status code. Errors are reserved
	// for transport failures and carry ETIMEOUT or ECONNRESET when the
	// failure is one of those.
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Outcome classifies the result of fetching a Target.
type Outcome int

// Fetch outcomes.
const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeFatal
	OutcomeOutOfPolicy
	OutcomeExhausted
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFatal:
		return "fatal"
	case OutcomeOutOfPolicy:
		return "out_of_policy"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// FetchResult is the terminal result of a gated fetch.
// Body is set only for OutcomeSuccess; Reason holds the last failure otherwise.
type FetchResult struct {
	Outcome  Outcome
	Body     []byte
	Reason   error
	Attempts int
}

// FetchGate fetches Targets with origin-aware throttling and bounded retry.
type FetchGate interface {
	Fetch(ctx context.Context, target Target) FetchResult
}

// Attempt describes one request made by a FetchGate.
type Attempt struct {
	Target     Target
	Number     int
	// Outcome is Exhausted for the retryable attempt that reached the limit.
	Outcome    Outcome
	StatusCode int
	Err        error
	Body       []byte
	Started    time.Time
	Duration   time.Duration
}

// AttemptObserver receives every attempt made by a FetchGate, success or failure.
// Implementations must not block for long; the gate waits for ObserveAttempt
// to return before retrying.
type AttemptObserver interface {
	ObserveAttempt(a Attempt)
}

// AttemptObserverFunc adapts a function to AttemptObserver.
type AttemptObserverFunc func(a Attempt)

// ObserveAttempt calls f(a).
func (f AttemptObserverFunc) ObserveAttempt(a Attempt) {
	f(a)
}

// MultiObserver fans attempts out to every non-nil observer in order.
func MultiObserver(observers ...AttemptObserver) AttemptObserver {
	var list []AttemptObserver
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return AttemptObserverFunc(func(a Attempt) {
		for _, o := range list {
			o.ObserveAttempt(a)
		}
	})
}
