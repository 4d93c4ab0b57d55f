package locmirror

import "context"

// Treatment is the fetch policy an origin receives.
type Treatment int

// Treatments in rule-evaluation order.
const (
	Rejected Treatment = iota
	Unthrottled
	Throttled
)

// String returns the treatment name used in logs.
func (t Treatment) String() string {
	switch t {
	case Unthrottled:
		return "unthrottled"
	case Throttled:
		return "throttled"
	default:
		return "rejected"
	}
}

// OriginClassifier decides how requests to a URL's origin are treated.
type OriginClassifier interface {
	// Classify returns the treatment for an absolute URL.
	// Unparseable URLs and unknown hosts are Rejected.
	Classify(url string) Treatment
}

// OriginLimiter serializes requests to a throttled origin.
type OriginLimiter interface {
	// Acquire blocks until a request to the origin may start. The returned
	// release func must be called once the request completes.
	// Returns an error if the context is canceled while waiting.
	Acquire(ctx context.Context, origin string) (release func(), err error)
}
