package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is a bounded exponential-backoff executor for external calls
// that are expected to be transiently flaky.
type Policy struct {
	MaxAttempts uint64
	Multiplier  float64
	MinWait     time.Duration
	MaxWait     time.Duration
}

// DefaultPolicy mirrors the provider activation policy: 10 attempts
// with exponential waits between a 4s floor and a 10s ceiling.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 10,
		Multiplier:  2,
		MinWait:     4 * time.Second,
		MaxWait:     10 * time.Second,
	}
}

// Do runs op until it succeeds, the attempt budget is spent, or ctx is
// canceled. The last error is returned once retries are exhausted.
func (p Policy) Do(ctx context.Context, op func() error) error {
	if p.MaxAttempts == 0 {
		return fmt.Errorf("retry policy without attempts")
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.MinWait
	b.MaxInterval = p.MaxWait
	b.Multiplier = p.Multiplier
	b.MaxElapsedTime = 0

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, p.MaxAttempts-1), ctx))
}
