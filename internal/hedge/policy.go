package hedge

import "time"

// RetryPolicy bounds hedge dispatch retries. A delayed hedge still captures
// most of the spread, so transient venue errors are worth a few attempts;
// beyond MaxAttempts the intent fails and the exposure is surfaced.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches a slow venue acknowledging within seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// Backoff returns the delay before the given retry (0-based), doubling from
// BaseDelay and capped at MaxDelay.
func (p RetryPolicy) Backoff(retry int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	max := p.MaxDelay
	if max <= 0 {
		max = 5 * time.Second
	}
	if retry < 0 {
		return base
	}
	if retry > 30 {
		return max
	}
	d := base * time.Duration(1<<uint(retry))
	if d > max {
		return max
	}
	return d
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 3
	}
	return p.MaxAttempts
}
