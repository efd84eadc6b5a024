package session

import "time"

// maxBackoffShift bounds the exponent so unlimited retries cannot overflow
// the delay computation.
const maxBackoffShift = 16

// RetryPolicy governs reconnection attempts after sustained read failure.
//
// The default matches the source behavior this viewer replaces: retry
// forever with a flat 2 second delay, favoring availability over fail-fast.
// The bound exists so operators can opt out of that choice.
type RetryPolicy struct {
	// MaxAttempts caps consecutive reopen attempts; 0 means retry forever
	MaxAttempts int
	// Delay is the backoff before the first reopen attempt
	Delay time.Duration
	// MaxDelay caps the backoff. Equal to Delay yields a flat schedule;
	// larger values enable capped exponential backoff.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the retry-forever flat-delay policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 0,
		Delay:       2 * time.Second,
		MaxDelay:    2 * time.Second,
	}
}

// Backoff returns the delay before the given reopen attempt (1-based).
//
// delay = Delay * 2^(attempt-1), capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}

	delay := p.Delay * time.Duration(1<<uint(attempt-1))
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	return delay
}

// Exhausted reports whether the given attempt (1-based) exceeds the policy.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt > p.MaxAttempts
}
