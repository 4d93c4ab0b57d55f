package mock

import (
	"context"

	"github.com/fwojciec/locmirror"
)

var _ locmirror.OriginClassifier = (*OriginClassifier)(nil)

// OriginClassifier is a mock implementation of locmirror.OriginClassifier.
type OriginClassifier struct {
	ClassifyFn func(url string) locmirror.Treatment
}

func (c *OriginClassifier) Classify(url string) locmirror.Treatment {
	return c.ClassifyFn(url)
}

var _ locmirror.OriginLimiter = (*OriginLimiter)(nil)

// OriginLimiter is a mock implementation of locmirror.OriginLimiter.
type OriginLimiter struct {
	AcquireFn func(ctx context.Context, origin string) (func(), error)
}

func (l *OriginLimiter) Acquire(ctx context.Context, origin string) (func(), error) {
	return l.AcquireFn(ctx, origin)
}
