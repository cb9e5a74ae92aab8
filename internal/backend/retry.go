package backend

import (
	"math"
	"time"

	"github.com/born-ml/quantumnat/internal/qerr"
)

// RetryPolicy bounds how often a failing call is repeated.
type RetryPolicy struct {
	MaxAttempts int
	Strategy    RetryStrategy
	Filter      func(error) bool
}

// RetryStrategy yields the wait before the given attempt (1-based).
type RetryStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles the delay after each attempt, capped at Max
// when Max is positive.
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

// NextDelay returns Initial·2^(attempt-1).
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	d := eb.Initial * time.Duration(math.Pow(2, float64(max(attempt, 1)-1)))
	if eb.Max > 0 && (d > eb.Max || d <= 0) {
		return eb.Max
	}
	return d
}

// DefaultRetryPolicy retries retryable backend errors three times.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Strategy:    &ExponentialBackoff{Initial: 200 * time.Millisecond, Max: 5 * time.Second},
		Filter:      qerr.IsRetryable,
	}
}

func (p RetryPolicy) retry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	if p.Filter == nil {
		return qerr.IsRetryable(err)
	}
	return p.Filter(err)
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.Strategy == nil {
		return 0
	}
	return p.Strategy.NextDelay(attempt)
}
