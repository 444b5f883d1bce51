package enrich

import (
	"errors"
	"math/rand/v2"
	"time"
)

// MaxRetries is how many times Enrich asks the model about one section
// before giving up on the document.
const MaxRetries = 3

const maxBackoff = 30 * time.Second

// IsRetryable reports whether err wraps a *RetryableError, meaning the
// provider was throttled or briefly unavailable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff is the pause after failed attempt n (counted from 0): 1s, 2s, 4s ...
// up to maxBackoff, plus up to half again as jitter.
func Backoff(attempt int) time.Duration {
	wait := min(time.Second<<min(max(attempt, 0), 5), maxBackoff)
	return wait + time.Duration(rand.Int64N(int64(wait)/2))
}
